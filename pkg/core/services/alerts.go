package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// AlertSink receives alerts raised by escalation checkpoints
type AlertSink interface {
	CreateAlert(ctx context.Context, alertType, severity, title, message string, data map[string]any) (*db.Alert, error)
}

// Notifier pushes an alert out of band, e.g. by email. Notification is
// best effort and never affects whether the alert itself persists.
type Notifier interface {
	Notify(ctx context.Context, alert *db.Alert) error
}

// StoreAlertSink persists alerts through the store, then notifies.
// The persisted row is the source of truth; a notifier failure is
// logged and the alert still stands.
type StoreAlertSink struct {
	store    db.AlertStore
	notifier Notifier
	logger   *zap.Logger
}

// NewStoreAlertSink creates a sink writing to store. notifier may be nil.
func NewStoreAlertSink(store db.AlertStore, notifier Notifier, logger *zap.Logger) *StoreAlertSink {
	return &StoreAlertSink{store: store, notifier: notifier, logger: logger}
}

// CreateAlert persists the alert and pushes it to the notifier
func (s *StoreAlertSink) CreateAlert(ctx context.Context, alertType, severity, title, message string, data map[string]any) (*db.Alert, error) {
	alert, err := s.store.InsertAlert(ctx, &db.Alert{
		Type:     alertType,
		Severity: severity,
		Title:    title,
		Message:  message,
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store alert: %w", err)
	}

	s.logger.Debug("Alert stored",
		zap.String("alert_id", alert.ID),
		zap.String("alert_type", alertType),
		zap.String("severity", severity))

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.Warn("Alert notification failed",
				zap.String("alert_id", alert.ID),
				zap.Error(err))
		}
	}

	return alert, nil
}

// LogNotifier writes alerts to the log, the default notifier when no
// email delivery is configured
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs alerts
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert at a level matching its severity
func (n *LogNotifier) Notify(_ context.Context, alert *db.Alert) error {
	fields := []zap.Field{
		zap.String("alert_type", alert.Type),
		zap.String("severity", alert.Severity),
		zap.String("message", alert.Message),
	}
	if alert.Severity == db.SeverityCritical {
		n.logger.Error(alert.Title, fields...)
	} else {
		n.logger.Warn(alert.Title, fields...)
	}
	return nil
}

// EmailSender delivers one email. gmailclient.Client implements it.
type EmailSender interface {
	SendEmail(from, to, subject, body string) error
}

// EmailNotifier mails critical alerts to the duty officer. Lower
// severities stay in the log; email is reserved for alerts that need a
// human tonight.
type EmailNotifier struct {
	sender EmailSender
	from   string
	to     string
	logger *zap.Logger
}

// NewEmailNotifier creates a notifier mailing critical alerts from
// sender address from to recipient to
func NewEmailNotifier(sender EmailSender, from, to string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, from: from, to: to, logger: logger}
}

// Notify mails the alert when it is critical
func (n *EmailNotifier) Notify(_ context.Context, alert *db.Alert) error {
	if alert.Severity != db.SeverityCritical {
		return nil
	}

	n.logger.Debug("Mailing critical alert",
		zap.String("alert_id", alert.ID),
		zap.String("recipient", n.to))

	if err := n.sender.SendEmail(n.from, n.to, alert.Title, alert.Message); err != nil {
		return fmt.Errorf("failed to mail alert: %w", err)
	}
	return nil
}

// ListActiveAlerts returns all unacknowledged alerts, newest first
func ListActiveAlerts(ctx context.Context, store db.AlertStore, logger *zap.Logger) ([]db.Alert, error) {
	logger.Debug("Listing active alerts")

	alerts, err := store.ListActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}

	logger.Debug("Active alerts listed", zap.Int("count", len(alerts)))
	return alerts, nil
}

// AcknowledgeAlert marks an active alert acknowledged
func AcknowledgeAlert(ctx context.Context, store db.AlertStore, logger *zap.Logger, alertID, acknowledgedBy, note string) (*db.Alert, error) {
	logger.Debug("Acknowledging alert",
		zap.String("alert_id", alertID),
		zap.String("acknowledged_by", acknowledgedBy))

	alert, err := store.AcknowledgeAlert(ctx, alertID, acknowledgedBy, note)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	logger.Info("Alert acknowledged",
		zap.String("alert_id", alert.ID),
		zap.String("alert_type", alert.Type))
	return alert, nil
}
