package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// GetBuildingSnapshot assembles the read-only view the escalation job
// and the status command consume: building security state for the
// operational date, the current lockup holder, and presence counts.
// A date with no building_status row reads as unsecured.
func GetBuildingSnapshot(ctx context.Context, store db.SnapshotStore, logger *zap.Logger, operationalDate string) (db.BuildingSnapshot, error) {
	logger.Debug("Assembling building snapshot", zap.String("operational_date", operationalDate))

	snapshot := db.BuildingSnapshot{
		OperationalDate: operationalDate,
		BuildingStatus:  db.BuildingUnsecured,
	}

	status, err := store.GetBuildingStatus(ctx, operationalDate)
	if err != nil {
		return db.BuildingSnapshot{}, fmt.Errorf("failed to fetch building status: %w", err)
	}
	if status != nil {
		snapshot.BuildingStatus = status.Status
	}

	holder, err := store.GetTagHolder(ctx, db.TagLockup)
	if err != nil {
		return db.BuildingSnapshot{}, fmt.Errorf("failed to fetch lockup holder: %w", err)
	}
	snapshot.LockupHolder = holder

	presence, err := store.GetPresenceStats(ctx)
	if err != nil {
		return db.BuildingSnapshot{}, fmt.Errorf("failed to fetch presence stats: %w", err)
	}
	snapshot.Presence = presence

	logger.Debug("Building snapshot assembled",
		zap.String("building_status", snapshot.BuildingStatus),
		zap.Bool("has_lockup_holder", holder != nil),
		zap.Int("present_members", presence.PresentMembers),
		zap.Int("present_visitors", presence.PresentVisitors))
	return snapshot, nil
}

// SecureBuilding marks the operational date secured. The first securing
// wins; a second attempt is ErrConflict.
func SecureBuilding(ctx context.Context, store db.BuildingStore, logger *zap.Logger, operationalDate, securedBy, notes string) (*db.BuildingStatus, error) {
	logger.Debug("Securing building",
		zap.String("operational_date", operationalDate),
		zap.String("secured_by", securedBy))

	status, err := store.SecureBuilding(ctx, operationalDate, securedBy, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to secure building: %w", err)
	}

	logger.Info("Building secured",
		zap.String("operational_date", operationalDate),
		zap.String("secured_by", securedBy))
	return status, nil
}
