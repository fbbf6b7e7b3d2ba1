package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// appendAudit writes one responsibility ledger row inside the caller's
// transaction. The ledger is append-only; no update or delete path exists.
func appendAudit(ctx context.Context, tx pgx.Tx, e db.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO responsibility_audit_log
			(id, member_id, tag_name, action, from_member_id, to_member_id,
			 performed_by, performed_by_type, ts, notes)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5::uuid, $6::uuid, $7::uuid, $8, $9, $10)
	`, e.ID, e.MemberID, e.TagName, e.Action, e.FromMemberID, e.ToMemberID,
		e.PerformedBy, e.PerformedByType, e.Timestamp, e.Notes)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", translateErr(err))
	}
	return nil
}

// ListAuditEntries reads ledger rows newest-first. A member filter
// matches the subject, the transfer source, or the transfer target, so
// a member's history includes duties handed away from them.
func (d *DB) ListAuditEntries(ctx context.Context, f db.AuditFilter) ([]db.AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id::text, member_id::text, tag_name, action,
		       from_member_id::text, to_member_id::text,
		       performed_by::text, performed_by_type, ts, notes
		FROM responsibility_audit_log
		WHERE 1=1`
	args := []any{}
	if f.MemberID != "" {
		args = append(args, f.MemberID)
		n := len(args)
		query += fmt.Sprintf(` AND (member_id = $%d::uuid OR from_member_id = $%d::uuid OR to_member_id = $%d::uuid)`, n, n, n)
	}
	if f.TagName != "" {
		args = append(args, f.TagName)
		query += fmt.Sprintf(` AND tag_name = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY ts DESC LIMIT $%d`, len(args))

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", translateErr(err))
	}
	defer rows.Close()

	var entries []db.AuditEntry
	for rows.Next() {
		var e db.AuditEntry
		err := rows.Scan(
			&e.ID, &e.MemberID, &e.TagName, &e.Action,
			&e.FromMemberID, &e.ToMemberID,
			&e.PerformedBy, &e.PerformedByType, &e.Timestamp, &e.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", translateErr(err))
	}
	return entries, nil
}
