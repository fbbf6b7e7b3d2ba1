package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// Checkpoint is one configured escalation point in the evening,
// e.g. a 22:00 warning and a 23:00 critical
type Checkpoint struct {
	Name     string
	Severity string
}

// AlertDecision is what a checkpoint evaluation concluded should be
// raised. A nil decision means the building state needs no alert.
type AlertDecision struct {
	Type     string
	Severity string
	Title    string
	Message  string
	Data     map[string]any
}

// EvaluateLockupEscalation decides whether a checkpoint should raise an
// alert for the given building snapshot. Pure: no clock, no store.
//
// Secured buildings never alert. An unsecured building with no lockup
// holder is always critical, whatever the checkpoint severity: nobody
// is responsible for securing it. With a holder, the checkpoint's own
// severity applies.
func EvaluateLockupEscalation(snapshot db.BuildingSnapshot, checkpoint Checkpoint) *AlertDecision {
	if snapshot.Secured() {
		return nil
	}

	data := map[string]any{
		"operationalDate": snapshot.OperationalDate,
		"checkpoint":      checkpoint.Name,
		"presentMembers":  snapshot.Presence.PresentMembers,
		"presentVisitors": snapshot.Presence.PresentVisitors,
	}

	if snapshot.LockupHolder == nil {
		return &AlertDecision{
			Type:     db.AlertTypeLockupNotExecuted,
			Severity: db.SeverityCritical,
			Title:    "Lockup Unassigned",
			Message: fmt.Sprintf(
				"The building is not secured and no one holds the Lockup tag for %s.",
				snapshot.OperationalDate),
			Data: data,
		}
	}

	holder := snapshot.LockupHolder.DisplayName()
	data["lockupHolderId"] = snapshot.LockupHolder.ID

	if checkpoint.Severity == db.SeverityCritical {
		return &AlertDecision{
			Type:     db.AlertTypeLockupNotExecuted,
			Severity: db.SeverityCritical,
			Title:    "Lockup Overdue",
			Message: fmt.Sprintf(
				"The building has not been secured for %s. %s holds the Lockup tag and has not executed lockup.",
				snapshot.OperationalDate, holder),
			Data: data,
		}
	}

	return &AlertDecision{
		Type:     db.AlertTypeLockupReminder,
		Severity: db.SeverityWarning,
		Title:    "Lockup Reminder",
		Message: fmt.Sprintf(
			"The building is not yet secured for %s. %s holds the Lockup tag.",
			snapshot.OperationalDate, holder),
		Data: data,
	}
}

// RunLockupEscalation executes one escalation tick: read the building
// snapshot, evaluate the checkpoint, deliver any resulting alert.
//
// A snapshot read failure fails the tick. A sink delivery failure does
// not: the decision is logged and the next checkpoint re-evaluates the
// same truth, so no deduplication or retry state is kept.
func RunLockupEscalation(ctx context.Context, store db.SnapshotStore, sink AlertSink, logger *zap.Logger, operationalDate string, checkpoint Checkpoint) error {
	logger.Debug("Running lockup escalation",
		zap.String("checkpoint", checkpoint.Name),
		zap.String("operational_date", operationalDate))

	snapshot, err := GetBuildingSnapshot(ctx, store, logger, operationalDate)
	if err != nil {
		return fmt.Errorf("failed to read building snapshot: %w", err)
	}

	decision := EvaluateLockupEscalation(snapshot, checkpoint)
	if decision == nil {
		logger.Debug("Building secured, no escalation",
			zap.String("checkpoint", checkpoint.Name))
		return nil
	}

	logger.Info("Escalation raised",
		zap.String("checkpoint", checkpoint.Name),
		zap.String("alert_type", decision.Type),
		zap.String("severity", decision.Severity),
		zap.String("title", decision.Title))

	if _, err := sink.CreateAlert(ctx, decision.Type, decision.Severity, decision.Title, decision.Message, decision.Data); err != nil {
		logger.Warn("Alert delivery failed",
			zap.String("checkpoint", checkpoint.Name),
			zap.String("alert_type", decision.Type),
			zap.Error(err))
	}

	return nil
}
