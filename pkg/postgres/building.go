package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sentinel-ops/sentinel/pkg/db"
)

// GetBuildingStatus reads the security state for an operational date.
// A date with no row has never been secured; returns (nil, nil).
func (d *DB) GetBuildingStatus(ctx context.Context, operationalDate string) (*db.BuildingStatus, error) {
	var s db.BuildingStatus
	err := d.pool.QueryRow(ctx, `
		SELECT to_char(operational_date, 'YYYY-MM-DD'), status, secured_by::text, secured_at
		FROM building_status
		WHERE operational_date = $1::date
	`, operationalDate).Scan(&s.OperationalDate, &s.Status, &s.SecuredBy, &s.SecuredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get building status: %w", translateErr(err))
	}
	return &s, nil
}

// SecureBuilding marks the operational date secured. Securing an
// already-secured date is ErrConflict; the first securing stands.
func (d *DB) SecureBuilding(ctx context.Context, operationalDate, securedBy, notes string) (*db.BuildingStatus, error) {
	var secured *db.BuildingStatus

	err := d.inTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
			SELECT status FROM building_status
			WHERE operational_date = $1::date
			FOR UPDATE
		`, operationalDate).Scan(&status)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to lock building status: %w", translateErr(err))
		}
		if status == db.BuildingSecured {
			return fmt.Errorf("building already secured for %s: %w", operationalDate, db.ErrConflict)
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			INSERT INTO building_status (operational_date, status, secured_by, secured_at, notes)
			VALUES ($1::date, 'secured', $2::uuid, $3, $4)
			ON CONFLICT (operational_date)
			DO UPDATE SET status = 'secured', secured_by = $2::uuid, secured_at = $3, notes = $4
		`, operationalDate, securedBy, now, notes)
		if err != nil {
			return fmt.Errorf("failed to secure building: %w", translateErr(err))
		}

		secured = &db.BuildingStatus{
			OperationalDate: operationalDate,
			Status:          db.BuildingSecured,
			SecuredBy:       &securedBy,
			SecuredAt:       &now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return secured, nil
}

// IsMemberPresent reports whether a member's most recent checkin is
// inbound
func (d *DB) IsMemberPresent(ctx context.Context, memberID string) (bool, error) {
	var direction string
	err := d.pool.QueryRow(ctx, `
		SELECT direction FROM checkins
		WHERE member_id = $1::uuid
		ORDER BY ts DESC
		LIMIT 1
	`, memberID).Scan(&direction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check member presence: %w", translateErr(err))
	}
	return direction == "in", nil
}

// GetPresenceStats counts who is inside right now. A member is present
// when their most recent checkin is inbound; a visitor is present until
// checked out.
func (d *DB) GetPresenceStats(ctx context.Context) (db.PresenceStats, error) {
	var stats db.PresenceStats

	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT DISTINCT ON (member_id) direction
			FROM checkins
			ORDER BY member_id, ts DESC
		) latest
		WHERE latest.direction = 'in'
	`).Scan(&stats.PresentMembers)
	if err != nil {
		return db.PresenceStats{}, fmt.Errorf("failed to count present members: %w", translateErr(err))
	}

	err = d.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM visitors WHERE check_out_time IS NULL
	`).Scan(&stats.PresentVisitors)
	if err != nil {
		return db.PresenceStats{}, fmt.Errorf("failed to count present visitors: %w", translateErr(err))
	}

	return stats, nil
}
