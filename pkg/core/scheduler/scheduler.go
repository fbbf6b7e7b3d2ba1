package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
)

// JobFunc executes one escalation tick for a checkpoint. The fire time
// is the scheduled occurrence in the configured timezone.
type JobFunc func(ctx context.Context, checkpoint services.Checkpoint, fireAt time.Time) error

// entry is one recurring checkpoint with its parsed recurrence rule
type entry struct {
	checkpoint services.Checkpoint
	rule       *rrule.RRule
}

// Scheduler fires escalation checkpoints at their rrule occurrences.
// Job failures are logged and the loop keeps running; only context
// cancellation stops it.
type Scheduler struct {
	entries []entry
	loc     *time.Location
	job     JobFunc
	logger  *zap.Logger

	// now is swappable in tests
	now func() time.Time
}

// New creates a scheduler firing job in the given timezone
func New(loc *time.Location, job JobFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		loc:    loc,
		job:    job,
		logger: logger,
		now:    time.Now,
	}
}

// AddCheckpoint registers a recurring checkpoint. The rule is an RRULE
// string such as "FREQ=DAILY;BYHOUR=22;BYMINUTE=0;BYSECOND=0",
// interpreted in the scheduler's timezone.
func (s *Scheduler) AddCheckpoint(checkpoint services.Checkpoint, rule string) error {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return fmt.Errorf("failed to parse rrule for checkpoint %s: %w", checkpoint.Name, err)
	}

	// Anchor the rule in the scheduler's timezone so BYHOUR means local
	// wall-clock time, not UTC.
	opt.Dtstart = time.Date(2020, 1, 1, 0, 0, 0, 0, s.loc)

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return fmt.Errorf("failed to build rrule for checkpoint %s: %w", checkpoint.Name, err)
	}

	s.entries = append(s.entries, entry{checkpoint: checkpoint, rule: r})
	return nil
}

// Next returns the earliest upcoming occurrence across all checkpoints
// strictly after the given time, with the checkpoint that fires then.
// ok is false when no entry has a future occurrence.
func (s *Scheduler) Next(after time.Time) (services.Checkpoint, time.Time, bool) {
	var best time.Time
	var bestCheckpoint services.Checkpoint
	found := false

	for _, e := range s.entries {
		next := e.rule.After(after.In(s.loc), false)
		if next.IsZero() {
			continue
		}
		if !found || next.Before(best) {
			best = next
			bestCheckpoint = e.checkpoint
			found = true
		}
	}
	return bestCheckpoint, best, found
}

// Run fires checkpoints until the context is cancelled. Each iteration
// sleeps until the next occurrence, runs every checkpoint due at that
// instant, and recomputes.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.entries) == 0 {
		return fmt.Errorf("no checkpoints registered")
	}

	s.logger.Info("Escalation scheduler started",
		zap.Int("checkpoints", len(s.entries)),
		zap.String("timezone", s.loc.String()))

	for {
		_, fireAt, ok := s.Next(s.now())
		if !ok {
			s.logger.Info("No future checkpoint occurrences, scheduler stopping")
			return nil
		}

		wait := fireAt.Sub(s.now())
		s.logger.Debug("Waiting for next checkpoint",
			zap.Time("fire_at", fireAt),
			zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Escalation scheduler stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-timer.C:
		}

		s.fireDue(ctx, fireAt)
	}
}

// fireDue runs every checkpoint whose next occurrence is the fire
// instant. Checkpoints sharing an occurrence all run.
func (s *Scheduler) fireDue(ctx context.Context, fireAt time.Time) {
	for _, e := range s.entries {
		next := e.rule.After(fireAt.Add(-time.Second), false)
		if next.IsZero() || !next.Equal(fireAt) {
			continue
		}

		s.logger.Info("Checkpoint firing",
			zap.String("checkpoint", e.checkpoint.Name),
			zap.Time("fire_at", fireAt))

		if err := s.job(ctx, e.checkpoint, fireAt); err != nil {
			s.logger.Error("Checkpoint job failed",
				zap.String("checkpoint", e.checkpoint.Name),
				zap.Error(err))
		}
	}
}
