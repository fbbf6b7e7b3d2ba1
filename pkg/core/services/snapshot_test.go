package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

func TestGetBuildingSnapshot_DefaultsToUnsecured(t *testing.T) {
	// No building_status row for the date reads as unsecured.
	store := &mockSnapshotStore{
		presence: db.PresenceStats{PresentMembers: 3, PresentVisitors: 2},
	}
	logger := zap.NewNop()
	ctx := context.Background()

	snapshot, err := GetBuildingSnapshot(ctx, store, logger, "2026-03-14")

	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", snapshot.OperationalDate)
	assert.False(t, snapshot.Secured())
	assert.Nil(t, snapshot.LockupHolder)
	assert.Equal(t, 3, snapshot.Presence.PresentMembers)
	assert.Equal(t, 2, snapshot.Presence.PresentVisitors)
}

func TestGetBuildingSnapshot_SecuredWithHolder(t *testing.T) {
	store := &mockSnapshotStore{
		status: &db.BuildingStatus{OperationalDate: "2026-03-14", Status: db.BuildingSecured},
		holder: &db.Holder{Member: db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}},
	}
	logger := zap.NewNop()
	ctx := context.Background()

	snapshot, err := GetBuildingSnapshot(ctx, store, logger, "2026-03-14")

	require.NoError(t, err)
	assert.True(t, snapshot.Secured())
	require.NotNil(t, snapshot.LockupHolder)
	assert.Equal(t, "m-1", snapshot.LockupHolder.ID)
}
