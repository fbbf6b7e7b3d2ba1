package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// NextCandidateProvider supplies the member expected to take DDS duty
// next. Selection policy (rosters, rotations, fairness) lives outside
// this subsystem.
type NextCandidateProvider interface {
	NextCandidate(ctx context.Context, assignedDate string) (*db.Member, error)
}

// CurrentDdsResult is the read-side view of a day's DDS duty
type CurrentDdsResult struct {
	Assignment    *db.DdsAssignment
	NextCandidate *db.Member
	IsOnSite      bool
}

// AssignDds creates a pending DDS assignment for the operational date.
// The assigned member must accept before the duty becomes active.
// Fails with ErrConflict when the date already has a live assignment.
func AssignDds(ctx context.Context, store db.DdsStore, logger *zap.Logger, assignedDate, memberID string, assignedBy *string, notes string) (*db.DdsAssignment, error) {
	logger.Debug("Assigning DDS",
		zap.String("assigned_date", assignedDate),
		zap.String("member_id", memberID))

	assignment, err := store.CreateDdsAssignment(ctx, db.CreateDdsParams{
		MemberID:        memberID,
		AssignedDate:    assignedDate,
		Status:          db.DdsStatusPending,
		AssignedBy:      assignedBy,
		Notes:           notes,
		LedgerAction:    db.ActionAssigned,
		PerformedBy:     assignedBy,
		PerformedByType: db.ActorAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign DDS: %w", err)
	}

	logger.Info("DDS assigned",
		zap.String("assignment_id", assignment.ID),
		zap.String("member_id", memberID),
		zap.String("assigned_date", assignedDate))
	return assignment, nil
}

// AcceptDds moves a pending assignment to active. Only the pending
// state accepts; anything else is ErrConflict.
func AcceptDds(ctx context.Context, store db.DdsStore, logger *zap.Logger, assignmentID string) (*db.DdsAssignment, error) {
	logger.Debug("Accepting DDS assignment", zap.String("assignment_id", assignmentID))

	assignment, err := store.AcceptDdsAssignment(ctx, assignmentID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to accept DDS assignment: %w", err)
	}

	logger.Info("DDS assignment accepted",
		zap.String("assignment_id", assignment.ID),
		zap.String("member_id", assignment.MemberID))
	return assignment, nil
}

// SelfAcceptDds creates an active assignment in one step, the kiosk
// path where a member takes the duty directly. After the assignment
// commits, the Lockup tag is auto-transferred to the new DDS on a
// best-effort basis: a transfer failure is logged and never unwinds
// the acceptance.
func SelfAcceptDds(ctx context.Context, store db.SelfAcceptStore, logger *zap.Logger, assignedDate, memberID, notes string) (*db.DdsAssignment, error) {
	logger.Debug("Self-accepting DDS",
		zap.String("assigned_date", assignedDate),
		zap.String("member_id", memberID))

	now := time.Now().UTC()
	assignment, err := store.CreateDdsAssignment(ctx, db.CreateDdsParams{
		MemberID:        memberID,
		AssignedDate:    assignedDate,
		Status:          db.DdsStatusActive,
		AcceptedAt:      &now,
		Notes:           notes,
		LedgerAction:    db.ActionAccepted,
		PerformedBy:     &memberID,
		PerformedByType: db.ActorMember,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to self-accept DDS: %w", err)
	}

	logger.Info("DDS self-accepted",
		zap.String("assignment_id", assignment.ID),
		zap.String("member_id", memberID))

	// Best effort: the new DDS should also carry the Lockup tag, but a
	// missing holder or transfer failure must not block the duty itself.
	if _, err := TransferLockupTag(ctx, store, logger, memberID, &memberID, db.ActorSystem, "auto-transfer on DDS self-accept"); err != nil {
		logger.Warn("Lockup auto-transfer failed after DDS self-accept",
			zap.String("member_id", memberID),
			zap.Error(err))
	}

	return assignment, nil
}

// TransferDds hands the active assignment for a date to another member.
// The predecessor row becomes transferred and a fresh active row is
// created for the target, one transaction.
func TransferDds(ctx context.Context, store db.DdsStore, logger *zap.Logger, assignedDate, toMemberID string, performedBy *string, performedByType, notes string) (*db.DdsAssignment, error) {
	logger.Debug("Transferring DDS",
		zap.String("assigned_date", assignedDate),
		zap.String("to_member_id", toMemberID))

	successor, err := store.TransferDdsAssignment(ctx, db.TransferDdsParams{
		AssignedDate:    assignedDate,
		ToMemberID:      toMemberID,
		PerformedBy:     performedBy,
		PerformedByType: performedByType,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transfer DDS: %w", err)
	}

	logger.Info("DDS transferred",
		zap.String("assignment_id", successor.ID),
		zap.String("to_member_id", toMemberID),
		zap.String("assigned_date", assignedDate))
	return successor, nil
}

// ReleaseDds ends the active assignment for a date with no successor.
// Returns (nil, nil) when nothing is active, so checkout flows can call
// it unconditionally.
func ReleaseDds(ctx context.Context, store db.DdsStore, logger *zap.Logger, assignedDate string, performedBy *string, performedByType, notes string) (*db.DdsAssignment, error) {
	logger.Debug("Releasing DDS", zap.String("assigned_date", assignedDate))

	released, err := store.ReleaseDdsAssignment(ctx, db.ReleaseDdsParams{
		AssignedDate:    assignedDate,
		PerformedBy:     performedBy,
		PerformedByType: performedByType,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to release DDS: %w", err)
	}

	if released == nil {
		logger.Info("No active DDS assignment to release",
			zap.String("assigned_date", assignedDate))
		return nil, nil
	}

	logger.Info("DDS released",
		zap.String("assignment_id", released.ID),
		zap.String("member_id", released.MemberID))
	return released, nil
}

// GetCurrentDds reads the day's duty state: the live assignment, the
// next candidate per the injected provider, and whether the current
// DDS is on site
func GetCurrentDds(ctx context.Context, store db.CurrentDdsStore, provider NextCandidateProvider, logger *zap.Logger, assignedDate string) (*CurrentDdsResult, error) {
	logger.Debug("Fetching current DDS", zap.String("assigned_date", assignedDate))

	assignment, err := store.GetLiveDdsAssignment(ctx, assignedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live DDS assignment: %w", err)
	}

	result := &CurrentDdsResult{Assignment: assignment}

	if assignment != nil {
		onSite, err := store.IsMemberPresent(ctx, assignment.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to check DDS presence: %w", err)
		}
		result.IsOnSite = onSite
	}

	if provider != nil {
		candidate, err := provider.NextCandidate(ctx, assignedDate)
		if err != nil {
			// Candidate selection is advisory; the duty state itself is
			// still valid without it.
			logger.Warn("Next candidate lookup failed", zap.Error(err))
		} else {
			result.NextCandidate = candidate
		}
	}

	logger.Debug("Current DDS fetched",
		zap.Bool("has_assignment", assignment != nil),
		zap.Bool("is_on_site", result.IsOnSite))
	return result, nil
}
