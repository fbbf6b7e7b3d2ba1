package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/db"
)

func newTestScheduler(t *testing.T) (*Scheduler, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return New(loc, nil, zap.NewNop()), loc
}

func TestAddCheckpoint_RejectsBadRRule(t *testing.T) {
	sched, _ := newTestScheduler(t)

	err := sched.AddCheckpoint(services.Checkpoint{Name: "bad"}, "EVERY=NIGHT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestNext_ComputesLocalWallClockOccurrence(t *testing.T) {
	sched, loc := newTestScheduler(t)

	require.NoError(t, sched.AddCheckpoint(
		services.Checkpoint{Name: "evening-warning", Severity: db.SeverityWarning},
		"FREQ=DAILY;BYHOUR=22;BYMINUTE=0;BYSECOND=0"))

	// At 21:30 local, the next occurrence is 22:00 the same evening.
	after := time.Date(2026, 3, 14, 21, 30, 0, 0, loc)
	checkpoint, fireAt, ok := sched.Next(after)

	require.True(t, ok)
	assert.Equal(t, "evening-warning", checkpoint.Name)
	assert.Equal(t, time.Date(2026, 3, 14, 22, 0, 0, 0, loc), fireAt)

	// At 22:30 it has rolled to tomorrow.
	after = time.Date(2026, 3, 14, 22, 30, 0, 0, loc)
	_, fireAt, ok = sched.Next(after)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 15, 22, 0, 0, 0, loc), fireAt)
}

func TestNext_PicksEarliestAcrossCheckpoints(t *testing.T) {
	sched, loc := newTestScheduler(t)

	require.NoError(t, sched.AddCheckpoint(
		services.Checkpoint{Name: "late-critical", Severity: db.SeverityCritical},
		"FREQ=DAILY;BYHOUR=23;BYMINUTE=0;BYSECOND=0"))
	require.NoError(t, sched.AddCheckpoint(
		services.Checkpoint{Name: "evening-warning", Severity: db.SeverityWarning},
		"FREQ=DAILY;BYHOUR=22;BYMINUTE=0;BYSECOND=0"))

	after := time.Date(2026, 3, 14, 20, 0, 0, 0, loc)
	checkpoint, fireAt, ok := sched.Next(after)

	require.True(t, ok)
	assert.Equal(t, "evening-warning", checkpoint.Name)
	assert.Equal(t, 22, fireAt.In(loc).Hour())

	// Between the two, the critical is next.
	after = time.Date(2026, 3, 14, 22, 15, 0, 0, loc)
	checkpoint, fireAt, ok = sched.Next(after)

	require.True(t, ok)
	assert.Equal(t, "late-critical", checkpoint.Name)
	assert.Equal(t, 23, fireAt.In(loc).Hour())
}

func TestNext_SpansDstTransition(t *testing.T) {
	sched, loc := newTestScheduler(t)

	require.NoError(t, sched.AddCheckpoint(
		services.Checkpoint{Name: "evening-warning", Severity: db.SeverityWarning},
		"FREQ=DAILY;BYHOUR=22;BYMINUTE=0;BYSECOND=0"))

	// The night the US springs forward; the occurrence stays 22:00 wall
	// clock either side of the change.
	after := time.Date(2026, 3, 8, 1, 0, 0, 0, loc)
	_, fireAt, ok := sched.Next(after)

	require.True(t, ok)
	assert.Equal(t, 22, fireAt.In(loc).Hour())
	assert.Equal(t, 8, fireAt.In(loc).Day())
}
