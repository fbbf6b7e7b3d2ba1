package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// GetAuditLog reads responsibility ledger entries, newest first. A
// member filter matches entries where the member is the subject, the
// transfer source, or the transfer target.
func GetAuditLog(ctx context.Context, store db.AuditStore, logger *zap.Logger, filter db.AuditFilter) ([]db.AuditEntry, error) {
	logger.Debug("Fetching audit log",
		zap.String("member_id", filter.MemberID),
		zap.String("tag_name", filter.TagName),
		zap.Int("limit", filter.Limit))

	entries, err := store.ListAuditEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit log: %w", err)
	}

	logger.Debug("Audit log fetched", zap.Int("count", len(entries)))
	return entries, nil
}
