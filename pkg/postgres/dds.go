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

const ddsSelectColumns = `
	a.id::text, a.member_id::text, to_char(a.assigned_date, 'YYYY-MM-DD'),
	a.accepted_at, a.released_at, a.transferred_to::text, a.assigned_by::text,
	a.status, a.notes, a.created_at,
	m.id::text, m.first_name, m.last_name, m.rank`

func scanDdsAssignment(row pgx.Row) (*db.DdsAssignment, error) {
	var a db.DdsAssignment
	var m db.Member
	err := row.Scan(
		&a.ID, &a.MemberID, &a.AssignedDate,
		&a.AcceptedAt, &a.ReleasedAt, &a.TransferredTo, &a.AssignedBy,
		&a.Status, &a.Notes, &a.CreatedAt,
		&m.ID, &m.FirstName, &m.LastName, &m.Rank,
	)
	if err != nil {
		return nil, err
	}
	a.Member = &m
	return &a, nil
}

// GetLiveDdsAssignment returns the pending or active assignment for an
// operational date, or (nil, nil) when the day has no live assignment
func (d *DB) GetLiveDdsAssignment(ctx context.Context, assignedDate string) (*db.DdsAssignment, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+ddsSelectColumns+`
		FROM dds_assignments a
		JOIN members m ON m.id = a.member_id
		WHERE a.assigned_date = $1::date AND a.status IN ('pending', 'active')
		ORDER BY a.created_at DESC
		LIMIT 1
	`, assignedDate)

	a, err := scanDdsAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get live DDS assignment: %w", translateErr(err))
	}
	return a, nil
}

// GetDdsAssignment retrieves a single assignment by id
func (d *DB) GetDdsAssignment(ctx context.Context, assignmentID string) (*db.DdsAssignment, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+ddsSelectColumns+`
		FROM dds_assignments a
		JOIN members m ON m.id = a.member_id
		WHERE a.id = $1::uuid
	`, assignmentID)

	a, err := scanDdsAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("DDS assignment %s: %w", assignmentID, db.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get DDS assignment: %w", translateErr(err))
	}
	return a, nil
}

// CreateDdsAssignment inserts a new assignment row and its ledger entry
// in one transaction. The partial unique index on live assignments
// resolves concurrent creates: the loser receives ErrConflict.
func (d *DB) CreateDdsAssignment(ctx context.Context, p db.CreateDdsParams) (*db.DdsAssignment, error) {
	var created *db.DdsAssignment

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		member, err := getMemberTx(ctx, tx, p.MemberID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		id := uuid.New().String()
		_, err = tx.Exec(ctx, `
			INSERT INTO dds_assignments
				(id, member_id, assigned_date, accepted_at, assigned_by, status, notes, created_at)
			VALUES ($1::uuid, $2::uuid, $3::date, $4, $5::uuid, $6, $7, $8)
		`, id, p.MemberID, p.AssignedDate, p.AcceptedAt, p.AssignedBy, p.Status, p.Notes, now)
		if err != nil {
			return fmt.Errorf("failed to insert DDS assignment: %w", translateErr(err))
		}

		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        p.MemberID,
			TagName:         db.LedgerTagDds,
			Action:          p.LedgerAction,
			ToMemberID:      &p.MemberID,
			PerformedBy:     p.PerformedBy,
			PerformedByType: p.PerformedByType,
			Timestamp:       now,
			Notes:           p.Notes,
		}); err != nil {
			return err
		}

		created = &db.DdsAssignment{
			ID:           id,
			MemberID:     p.MemberID,
			AssignedDate: p.AssignedDate,
			AcceptedAt:   p.AcceptedAt,
			AssignedBy:   p.AssignedBy,
			Status:       p.Status,
			Notes:        p.Notes,
			CreatedAt:    now,
			Member:       member,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AcceptDdsAssignment moves a pending assignment to active. The guarded
// UPDATE only matches pending rows; when it affects nothing the row is
// either absent (ErrNotFound) or in another state (ErrConflict).
func (d *DB) AcceptDdsAssignment(ctx context.Context, assignmentID string, acceptedAt time.Time) (*db.DdsAssignment, error) {
	var accepted *db.DdsAssignment

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE dds_assignments
			SET status = 'active', accepted_at = $2
			WHERE id = $1::uuid AND status = 'pending'
		`, assignmentID, acceptedAt)
		if err != nil {
			return fmt.Errorf("failed to accept DDS assignment: %w", translateErr(err))
		}

		if ct.RowsAffected() == 0 {
			var status string
			err := tx.QueryRow(ctx,
				`SELECT status FROM dds_assignments WHERE id = $1::uuid`, assignmentID,
			).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("DDS assignment %s: %w", assignmentID, db.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to check DDS assignment state: %w", translateErr(err))
			}
			return fmt.Errorf("DDS assignment %s is %s, not pending: %w", assignmentID, status, db.ErrConflict)
		}

		row := tx.QueryRow(ctx, `
			SELECT `+ddsSelectColumns+`
			FROM dds_assignments a
			JOIN members m ON m.id = a.member_id
			WHERE a.id = $1::uuid
		`, assignmentID)
		a, err := scanDdsAssignment(row)
		if err != nil {
			return fmt.Errorf("failed to reload DDS assignment: %w", translateErr(err))
		}

		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        a.MemberID,
			TagName:         db.LedgerTagDds,
			Action:          db.ActionAccepted,
			ToMemberID:      &a.MemberID,
			PerformedBy:     &a.MemberID,
			PerformedByType: db.ActorMember,
			Timestamp:       acceptedAt,
		}); err != nil {
			return err
		}

		accepted = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// TransferDdsAssignment marks the date's active assignment transferred
// and creates the successor's active row, one transaction. Fails with
// ErrNotFound when the date has no active assignment or the target
// member does not exist.
func (d *DB) TransferDdsAssignment(ctx context.Context, p db.TransferDdsParams) (*db.DdsAssignment, error) {
	var successor *db.DdsAssignment

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+ddsSelectColumns+`
			FROM dds_assignments a
			JOIN members m ON m.id = a.member_id
			WHERE a.assigned_date = $1::date AND a.status = 'active'
			FOR UPDATE OF a
		`, p.AssignedDate)
		current, err := scanDdsAssignment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("no active DDS assignment for %s: %w", p.AssignedDate, db.ErrNotFound)
			}
			return fmt.Errorf("failed to lock active DDS assignment: %w", translateErr(err))
		}

		target, err := getMemberTx(ctx, tx, p.ToMemberID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE dds_assignments
			SET status = 'transferred', transferred_to = $2::uuid
			WHERE id = $1::uuid
		`, current.ID, p.ToMemberID)
		if err != nil {
			return fmt.Errorf("failed to mark DDS assignment transferred: %w", translateErr(err))
		}

		id := uuid.New().String()
		_, err = tx.Exec(ctx, `
			INSERT INTO dds_assignments
				(id, member_id, assigned_date, accepted_at, assigned_by, status, notes, created_at)
			VALUES ($1::uuid, $2::uuid, $3::date, $4, $5::uuid, 'active', $6, $4)
		`, id, p.ToMemberID, p.AssignedDate, now, p.PerformedBy, p.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert successor DDS assignment: %w", translateErr(err))
		}

		fromID := current.MemberID
		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        p.ToMemberID,
			TagName:         db.LedgerTagDds,
			Action:          db.ActionTransferred,
			FromMemberID:    &fromID,
			ToMemberID:      &p.ToMemberID,
			PerformedBy:     p.PerformedBy,
			PerformedByType: p.PerformedByType,
			Timestamp:       now,
			Notes:           p.Notes,
		}); err != nil {
			return err
		}

		acceptedAt := now
		successor = &db.DdsAssignment{
			ID:           id,
			MemberID:     p.ToMemberID,
			AssignedDate: p.AssignedDate,
			AcceptedAt:   &acceptedAt,
			AssignedBy:   p.PerformedBy,
			Status:       db.DdsStatusActive,
			Notes:        p.Notes,
			CreatedAt:    now,
			Member:       target,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

// ReleaseDdsAssignment ends the date's active assignment with no
// successor. Returns (nil, nil) when nothing is active: release is a
// defined no-op so checkout flows can call it unconditionally.
func (d *DB) ReleaseDdsAssignment(ctx context.Context, p db.ReleaseDdsParams) (*db.DdsAssignment, error) {
	var released *db.DdsAssignment

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+ddsSelectColumns+`
			FROM dds_assignments a
			JOIN members m ON m.id = a.member_id
			WHERE a.assigned_date = $1::date AND a.status = 'active'
			FOR UPDATE OF a
		`, p.AssignedDate)
		current, err := scanDdsAssignment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock active DDS assignment: %w", translateErr(err))
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE dds_assignments
			SET status = 'released', released_at = $2
			WHERE id = $1::uuid
		`, current.ID, now)
		if err != nil {
			return fmt.Errorf("failed to release DDS assignment: %w", translateErr(err))
		}

		fromID := current.MemberID
		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        current.MemberID,
			TagName:         db.LedgerTagDds,
			Action:          db.ActionReleased,
			FromMemberID:    &fromID,
			PerformedBy:     p.PerformedBy,
			PerformedByType: p.PerformedByType,
			Timestamp:       now,
			Notes:           p.Notes,
		}); err != nil {
			return err
		}

		current.Status = db.DdsStatusReleased
		current.ReleasedAt = &now
		released = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}
