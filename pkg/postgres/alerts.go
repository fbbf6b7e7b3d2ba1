package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// InsertAlert persists a new active alert and returns it with its
// generated id and creation time filled in
func (d *DB) InsertAlert(ctx context.Context, alert *db.Alert) (*db.Alert, error) {
	stored := *alert
	stored.ID = uuid.New().String()
	stored.Status = db.AlertStatusActive
	stored.CreatedAt = time.Now().UTC()

	_, err := d.pool.Exec(ctx, `
		INSERT INTO alerts (id, alert_type, severity, title, message, data, status, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
	`, stored.ID, stored.Type, stored.Severity, stored.Title, stored.Message,
		stored.Data, stored.Status, stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert alert: %w", translateErr(err))
	}
	return &stored, nil
}

// ListActiveAlerts returns all unacknowledged alerts, newest first
func (d *DB) ListActiveAlerts(ctx context.Context) ([]db.Alert, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, alert_type, severity, title, message, data, status,
		       created_at, acknowledged_at, acknowledged_by::text, ack_note
		FROM alerts
		WHERE status = 'active'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", translateErr(err))
	}
	defer rows.Close()

	var alerts []db.Alert
	for rows.Next() {
		var a db.Alert
		err := rows.Scan(
			&a.ID, &a.Type, &a.Severity, &a.Title, &a.Message, &a.Data, &a.Status,
			&a.CreatedAt, &a.AcknowledgedAt, &a.AcknowledgedBy, &a.AckNote,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", translateErr(err))
	}
	return alerts, nil
}

// AcknowledgeAlert moves an active alert to acknowledged. Acknowledging
// twice is ErrConflict; the first acknowledgement stands.
func (d *DB) AcknowledgeAlert(ctx context.Context, alertID, acknowledgedBy, note string) (*db.Alert, error) {
	var acked *db.Alert

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE alerts
			SET status = 'acknowledged', acknowledged_at = NOW(),
			    acknowledged_by = $2::uuid, ack_note = $3
			WHERE id = $1::uuid AND status = 'active'
		`, alertID, acknowledgedBy, note)
		if err != nil {
			return fmt.Errorf("failed to acknowledge alert: %w", translateErr(err))
		}

		if ct.RowsAffected() == 0 {
			var status string
			err := tx.QueryRow(ctx, `SELECT status FROM alerts WHERE id = $1::uuid`, alertID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("alert %s: %w", alertID, db.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to check alert state: %w", translateErr(err))
			}
			return fmt.Errorf("alert %s already %s: %w", alertID, status, db.ErrConflict)
		}

		var a db.Alert
		err = tx.QueryRow(ctx, `
			SELECT id::text, alert_type, severity, title, message, data, status,
			       created_at, acknowledged_at, acknowledged_by::text, ack_note
			FROM alerts
			WHERE id = $1::uuid
		`, alertID).Scan(
			&a.ID, &a.Type, &a.Severity, &a.Title, &a.Message, &a.Data, &a.Status,
			&a.CreatedAt, &a.AcknowledgedAt, &a.AcknowledgedBy, &a.AckNote,
		)
		if err != nil {
			return fmt.Errorf("failed to reload alert: %w", translateErr(err))
		}

		acked = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acked, nil
}
