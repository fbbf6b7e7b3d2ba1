package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

func TestAssignDds_CreatesPendingAssignment(t *testing.T) {
	member := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	store := newMockDdsStore(member)
	logger := zap.NewNop()
	ctx := context.Background()
	admin := "admin-1"

	assignment, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", &admin, "weekend duty")

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusPending, assignment.Status)
	assert.Nil(t, assignment.AcceptedAt)
	assert.Equal(t, "m-1", assignment.MemberID)

	require.Len(t, store.ledger, 1)
	assert.Equal(t, db.ActionAssigned, store.ledger[0].Action)
	assert.Equal(t, db.ActorAdmin, store.ledger[0].PerformedByType)
}

func TestAssignDds_LiveAssignmentConflicts(t *testing.T) {
	m1 := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	m2 := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	store := newMockDdsStore(m1, m2)
	logger := zap.NewNop()
	ctx := context.Background()

	_, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)

	_, err = AssignDds(ctx, store, logger, "2026-03-14", "m-2", nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrConflict))
}

func TestAcceptDds_ActivatesPendingAssignment(t *testing.T) {
	member := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	store := newMockDdsStore(member)
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)

	accepted, err := AcceptDds(ctx, store, logger, assignment.ID)

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusActive, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	// Accepting again conflicts: only pending accepts.
	_, err = AcceptDds(ctx, store, logger, assignment.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrConflict))
}

func TestAcceptDds_UnknownAssignment(t *testing.T) {
	store := newMockDdsStore()
	logger := zap.NewNop()
	ctx := context.Background()

	_, err := AcceptDds(ctx, store, logger, "assignment-404")

	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestSelfAcceptDds_CreatesActiveAndTransfersLockup(t *testing.T) {
	previous := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	member := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	dds := newMockDdsStore(previous, member)
	tags := newMockTagStore(previous, member)
	tags.holders[db.TagLockup] = &db.Holder{Member: *previous}
	store := &mockSelfAcceptStore{mockDdsStore: dds, mockTagStore: tags}
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := SelfAcceptDds(ctx, store, logger, "2026-03-14", "m-2", "")

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusActive, assignment.Status)
	require.NotNil(t, assignment.AcceptedAt)

	// One accepted entry in the DDS ledger, one transfer in the tag ledger.
	require.Len(t, dds.ledger, 1)
	assert.Equal(t, db.ActionAccepted, dds.ledger[0].Action)
	assert.Equal(t, db.ActorMember, dds.ledger[0].PerformedByType)

	require.Len(t, tags.ledger, 1)
	assert.Equal(t, db.ActionTransferred, tags.ledger[0].Action)
	assert.Equal(t, "m-2", tags.holders[db.TagLockup].ID)
}

func TestSelfAcceptDds_LockupTransferFailureDoesNotBlock(t *testing.T) {
	member := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	dds := newMockDdsStore(member)
	tags := newMockTagStore(member)
	tags.transferErr = fmt.Errorf("deadlock detected")
	store := &mockSelfAcceptStore{mockDdsStore: dds, mockTagStore: tags}
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := SelfAcceptDds(ctx, store, logger, "2026-03-14", "m-2", "")

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusActive, assignment.Status)
}

func TestSelfAcceptDds_NoLockupHolderStillSucceeds(t *testing.T) {
	member := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	dds := newMockDdsStore(member)
	tags := newMockTagStore(member)
	store := &mockSelfAcceptStore{mockDdsStore: dds, mockTagStore: tags}
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := SelfAcceptDds(ctx, store, logger, "2026-03-14", "m-2", "")

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusActive, assignment.Status)
	// Transfer was a no-op, not a failure; no tag ledger entry.
	assert.Empty(t, tags.ledger)
}

func TestTransferDds_CreatesSuccessorAndRetiresPredecessor(t *testing.T) {
	m1 := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	m2 := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	store := newMockDdsStore(m1, m2)
	logger := zap.NewNop()
	ctx := context.Background()

	original, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)
	_, err = AcceptDds(ctx, store, logger, original.ID)
	require.NoError(t, err)

	successor, err := TransferDds(ctx, store, logger, "2026-03-14", "m-2", nil, db.ActorAdmin, "going home sick")

	require.NoError(t, err)
	assert.Equal(t, db.DdsStatusActive, successor.Status)
	assert.Equal(t, "m-2", successor.MemberID)
	assert.NotEqual(t, original.ID, successor.ID)

	predecessor := store.byID[original.ID]
	assert.Equal(t, db.DdsStatusTransferred, predecessor.Status)
	assert.Equal(t, "m-2", *predecessor.TransferredTo)

	// Ledger references both members.
	last := store.ledger[len(store.ledger)-1]
	assert.Equal(t, db.ActionTransferred, last.Action)
	assert.Equal(t, "m-1", *last.FromMemberID)
	assert.Equal(t, "m-2", *last.ToMemberID)
}

func TestTransferDds_NoActiveAssignment(t *testing.T) {
	m1 := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	m2 := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	store := newMockDdsStore(m1, m2)
	logger := zap.NewNop()
	ctx := context.Background()

	// No assignment at all.
	_, err := TransferDds(ctx, store, logger, "2026-03-14", "m-2", nil, db.ActorAdmin, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	// Pending is not transferable either; the duty was never accepted.
	_, err = AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)

	_, err = TransferDds(ctx, store, logger, "2026-03-14", "m-2", nil, db.ActorAdmin, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestReleaseDds_EndsActiveAssignment(t *testing.T) {
	member := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	store := newMockDdsStore(member)
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)
	_, err = AcceptDds(ctx, store, logger, assignment.ID)
	require.NoError(t, err)

	released, err := ReleaseDds(ctx, store, logger, "2026-03-14", nil, db.ActorAdmin, "")

	require.NoError(t, err)
	require.NotNil(t, released)
	assert.Equal(t, db.DdsStatusReleased, released.Status)
	require.NotNil(t, released.ReleasedAt)

	last := store.ledger[len(store.ledger)-1]
	assert.Equal(t, db.ActionReleased, last.Action)
}

func TestReleaseDds_NothingActiveIsNoOp(t *testing.T) {
	store := newMockDdsStore()
	logger := zap.NewNop()
	ctx := context.Background()

	released, err := ReleaseDds(ctx, store, logger, "2026-03-14", nil, db.ActorAdmin, "")

	require.NoError(t, err)
	assert.Nil(t, released)
	assert.Empty(t, store.ledger)
}

func TestGetCurrentDds_ReportsPresenceAndCandidate(t *testing.T) {
	member := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	candidate := &db.Member{ID: "m-2", FirstName: "Alex", LastName: "Kim", Rank: "Sgt"}
	store := newMockDdsStore(member)
	store.present["m-1"] = true
	logger := zap.NewNop()
	ctx := context.Background()

	assignment, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)
	_, err = AcceptDds(ctx, store, logger, assignment.ID)
	require.NoError(t, err)

	provider := &mockCandidateProvider{candidate: candidate}

	result, err := GetCurrentDds(ctx, store, provider, logger, "2026-03-14")

	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, "m-1", result.Assignment.MemberID)
	assert.True(t, result.IsOnSite)
	require.NotNil(t, result.NextCandidate)
	assert.Equal(t, "m-2", result.NextCandidate.ID)
}

func TestGetCurrentDds_ProviderFailureIsAdvisory(t *testing.T) {
	member := &db.Member{ID: "m-1", FirstName: "Dana", LastName: "Reyes", Rank: "SSgt"}
	store := newMockDdsStore(member)
	logger := zap.NewNop()
	ctx := context.Background()

	_, err := AssignDds(ctx, store, logger, "2026-03-14", "m-1", nil, "")
	require.NoError(t, err)

	provider := &mockCandidateProvider{err: fmt.Errorf("roster service down")}

	result, err := GetCurrentDds(ctx, store, provider, logger, "2026-03-14")

	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Nil(t, result.NextCandidate)
}

func TestGetCurrentDds_NoAssignment(t *testing.T) {
	store := newMockDdsStore()
	logger := zap.NewNop()
	ctx := context.Background()

	result, err := GetCurrentDds(ctx, store, nil, logger, "2026-03-14")

	require.NoError(t, err)
	assert.Nil(t, result.Assignment)
	assert.False(t, result.IsOnSite)
}
