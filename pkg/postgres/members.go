package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// GetMember retrieves a member summary by id
func (d *DB) GetMember(ctx context.Context, memberID string) (*db.Member, error) {
	var m db.Member
	err := d.pool.QueryRow(ctx, `
		SELECT id::text, first_name, last_name, rank
		FROM members
		WHERE id = $1::uuid
	`, memberID).Scan(&m.ID, &m.FirstName, &m.LastName, &m.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", memberID, db.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", translateErr(err))
	}
	return &m, nil
}

// getMemberTx is the in-transaction variant used by transfer operations
// to re-verify the target before mutating state
func getMemberTx(ctx context.Context, tx pgx.Tx, memberID string) (*db.Member, error) {
	var m db.Member
	err := tx.QueryRow(ctx, `
		SELECT id::text, first_name, last_name, rank
		FROM members
		WHERE id = $1::uuid
	`, memberID).Scan(&m.ID, &m.FirstName, &m.LastName, &m.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", memberID, db.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", translateErr(err))
	}
	return &m, nil
}
