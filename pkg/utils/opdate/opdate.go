// Package opdate buckets wall-clock time into operational dates.
//
// Duty records belong to an operational date, not a calendar date: a
// lockup still outstanding at 01:00 belongs to yesterday's duty day.
// The rollover time (e.g. "06:00") decides where one duty day ends and
// the next begins.
package opdate

import (
	"fmt"
	"time"
)

// Clock buckets instants into operational dates for one timezone and
// rollover time
type Clock struct {
	loc      *time.Location
	rollHour int
	rollMin  int
}

// New creates a Clock. rollover is "HH:MM" local wall-clock time.
func New(loc *time.Location, rollover string) (*Clock, error) {
	t, err := time.Parse("15:04", rollover)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover time %q: %w", rollover, err)
	}
	return &Clock{loc: loc, rollHour: t.Hour(), rollMin: t.Minute()}, nil
}

// DateAt returns the operational date containing the given instant, in
// "2006-01-02" form. Instants before the rollover belong to the
// previous calendar day.
func (c *Clock) DateAt(at time.Time) string {
	local := at.In(c.loc)
	rollover := time.Date(local.Year(), local.Month(), local.Day(), c.rollHour, c.rollMin, 0, 0, c.loc)
	if local.Before(rollover) {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}

// Today returns the current operational date
func (c *Clock) Today() string {
	return c.DateAt(time.Now())
}
