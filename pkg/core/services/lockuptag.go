package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// GetLockupHolder returns who currently holds the Lockup tag, or nil
// when nobody does
func GetLockupHolder(ctx context.Context, store db.TagStore, logger *zap.Logger) (*db.Holder, error) {
	logger.Debug("Fetching lockup holder")

	holder, err := store.GetTagHolder(ctx, db.TagLockup)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lockup holder: %w", err)
	}

	if holder == nil {
		logger.Debug("Lockup tag has no holder")
		return nil, nil
	}

	logger.Debug("Lockup holder found",
		zap.String("member_id", holder.ID),
		zap.Time("held_since", holder.HeldSince))
	return holder, nil
}

// TransferLockupTag hands the Lockup tag to another member.
//
// Returns (nil, nil) when the tag has no holder: a transfer moves an
// existing holding, it never originates one (see AcquireLockupTag).
// Transferring to the current holder succeeds without touching the
// ledger. Any real handoff replaces the holder and appends a
// `transferred` ledger entry atomically.
func TransferLockupTag(ctx context.Context, store db.TagStore, logger *zap.Logger, toMemberID string, performedBy *string, performedByType, notes string) (*db.TagTransferResult, error) {
	logger.Debug("Transferring lockup tag",
		zap.String("to_member_id", toMemberID),
		zap.String("performed_by_type", performedByType))

	result, err := store.TransferTagHolder(ctx, db.TagTransferParams{
		TagName:         db.TagLockup,
		ToMemberID:      toMemberID,
		PerformedBy:     performedBy,
		PerformedByType: performedByType,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transfer lockup tag: %w", err)
	}

	if result == nil {
		logger.Info("Lockup tag has no holder, nothing to transfer",
			zap.String("to_member_id", toMemberID))
		return nil, nil
	}

	if !result.LedgerWritten {
		logger.Info("Lockup tag already held by target, transfer is a no-op",
			zap.String("member_id", toMemberID))
		return result, nil
	}

	if result.RemovedHoldings > 1 {
		logger.Warn("Lockup tag had multiple holders, holding set healed",
			zap.Int("removed_holdings", result.RemovedHoldings))
	}

	logger.Info("Lockup tag transferred",
		zap.String("from_member_id", result.PreviousHolder.ID),
		zap.String("to_member_id", result.NewHolder.ID))
	return result, nil
}

// AcquireLockupTag originates a Lockup holding when nobody holds the
// tag. This is the administrative bootstrap step; day-to-day handoffs
// go through TransferLockupTag.
func AcquireLockupTag(ctx context.Context, store db.TagStore, logger *zap.Logger, memberID string, performedBy *string, performedByType, notes string) (*db.Holder, error) {
	logger.Debug("Acquiring lockup tag", zap.String("member_id", memberID))

	holder, err := store.AcquireTagHolder(ctx, db.TagAcquireParams{
		TagName:         db.TagLockup,
		MemberID:        memberID,
		PerformedBy:     performedBy,
		PerformedByType: performedByType,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lockup tag: %w", err)
	}

	logger.Info("Lockup tag acquired", zap.String("member_id", holder.ID))
	return holder, nil
}
