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

// GetTagHolder retrieves the current holder of a singleton tag.
// Returns (nil, nil) when the tag exists but nobody holds it.
func (d *DB) GetTagHolder(ctx context.Context, tagName string) (*db.Holder, error) {
	var h db.Holder
	err := d.pool.QueryRow(ctx, `
		SELECT m.id::text, m.first_name, m.last_name, m.rank, h.created_at
		FROM tag_holdings h
		JOIN tags t ON t.id = h.tag_id
		JOIN members m ON m.id = h.member_id
		WHERE t.name = $1
		ORDER BY h.created_at
		LIMIT 1
	`, tagName).Scan(&h.ID, &h.FirstName, &h.LastName, &h.Rank, &h.HeldSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tag holder: %w", translateErr(err))
	}
	return &h, nil
}

// TransferTagHolder atomically moves a singleton tag to another member.
//
// Returns (nil, nil) when the tag currently has no holder: the transfer
// protocol only moves an existing holding, it never originates one (see
// AcquireTagHolder). A transfer to the current holder is idempotent and
// writes no ledger entry. Otherwise the full holding set is deleted,
// the new holding inserted, and a `transferred` ledger entry appended,
// all in one transaction.
func (d *DB) TransferTagHolder(ctx context.Context, p db.TagTransferParams) (*db.TagTransferResult, error) {
	var result *db.TagTransferResult

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		tagID, err := lockTag(ctx, tx, p.TagName)
		if err != nil {
			return err
		}

		current, err := holderTx(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if current == nil {
			// Nothing to hand off from; defined no-op.
			return nil
		}

		if current.ID == p.ToMemberID {
			result = &db.TagTransferResult{
				PreviousHolder: current,
				NewHolder:      current,
			}
			return nil
		}

		target, err := getMemberTx(ctx, tx, p.ToMemberID)
		if err != nil {
			return err
		}

		// Delete the full holding set rather than one row: heals any
		// drift that left more than one holder behind.
		ct, err := tx.Exec(ctx, `DELETE FROM tag_holdings WHERE tag_id = $1::uuid`, tagID)
		if err != nil {
			return fmt.Errorf("failed to clear tag holdings: %w", translateErr(err))
		}
		removed := int(ct.RowsAffected())

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			INSERT INTO tag_holdings (id, tag_id, member_id, created_at)
			VALUES ($1::uuid, $2::uuid, $3::uuid, $4)
		`, uuid.New().String(), tagID, p.ToMemberID, now)
		if err != nil {
			return fmt.Errorf("failed to insert tag holding: %w", translateErr(err))
		}

		fromID := current.ID
		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        p.ToMemberID,
			TagName:         p.TagName,
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

		result = &db.TagTransferResult{
			PreviousHolder:  current,
			NewHolder:       &db.Holder{Member: *target, HeldSince: now},
			RemovedHoldings: removed,
			LedgerWritten:   true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AcquireTagHolder originates a holding for a tag with no current
// holder. Fails with ErrConflict when the tag is already held and
// ErrNotFound when the member does not exist.
func (d *DB) AcquireTagHolder(ctx context.Context, p db.TagAcquireParams) (*db.Holder, error) {
	var holder *db.Holder

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		tagID, err := lockTag(ctx, tx, p.TagName)
		if err != nil {
			return err
		}

		current, err := holderTx(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if current != nil {
			return fmt.Errorf("tag %s already held by member %s: %w", p.TagName, current.ID, db.ErrConflict)
		}

		member, err := getMemberTx(ctx, tx, p.MemberID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			INSERT INTO tag_holdings (id, tag_id, member_id, created_at)
			VALUES ($1::uuid, $2::uuid, $3::uuid, $4)
		`, uuid.New().String(), tagID, p.MemberID, now)
		if err != nil {
			return fmt.Errorf("failed to insert tag holding: %w", translateErr(err))
		}

		if err := appendAudit(ctx, tx, db.AuditEntry{
			MemberID:        p.MemberID,
			TagName:         p.TagName,
			Action:          db.ActionAssigned,
			ToMemberID:      &p.MemberID,
			PerformedBy:     p.PerformedBy,
			PerformedByType: p.PerformedByType,
			Timestamp:       now,
			Notes:           p.Notes,
		}); err != nil {
			return err
		}

		holder = &db.Holder{Member: *member, HeldSince: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return holder, nil
}

// lockTag locks the tag row for the duration of the transaction,
// serializing concurrent transfers of the same tag
func lockTag(ctx context.Context, tx pgx.Tx, tagName string) (string, error) {
	var tagID string
	err := tx.QueryRow(ctx, `
		SELECT id::text FROM tags WHERE name = $1 FOR UPDATE
	`, tagName).Scan(&tagID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("tag %s: %w", tagName, db.ErrNotFound)
		}
		return "", fmt.Errorf("failed to lock tag: %w", translateErr(err))
	}
	return tagID, nil
}

// holderTx re-reads the current holder inside the transfer transaction
func holderTx(ctx context.Context, tx pgx.Tx, tagID string) (*db.Holder, error) {
	var h db.Holder
	err := tx.QueryRow(ctx, `
		SELECT m.id::text, m.first_name, m.last_name, m.rank, h.created_at
		FROM tag_holdings h
		JOIN members m ON m.id = h.member_id
		WHERE h.tag_id = $1::uuid
		ORDER BY h.created_at
		LIMIT 1
	`, tagID).Scan(&h.ID, &h.FirstName, &h.LastName, &h.Rank, &h.HeldSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tag holder: %w", translateErr(err))
	}
	return &h, nil
}
