package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// DailyRunner is the part of Runner the scheduler drives
type DailyRunner interface {
	RunDaily(ctx context.Context, date time.Time, tickers []string) (*Summary, error)
}

// Scheduler triggers a daily run on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	runner DailyRunner
	loc    *time.Location
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	lastRun *Summary
	lastErr error
}

// NewScheduler registers the daily job. spec is a standard five-field cron
// expression evaluated in loc.
func NewScheduler(spec string, loc *time.Location, runner DailyRunner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		loc:    loc,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Trigger(context.Background()) }); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule %q: %w", spec, err))
	}
	return s, nil
}

// Start runs the scheduler until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler starting", zap.String("timezone", s.loc.String()))
	s.cron.Start()

	<-ctx.Done()

	s.logger.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// Trigger runs the job for today in the scheduler timezone. Overlapping
// triggers are skipped.
func (s *Scheduler) Trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	now := time.Now().In(s.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := s.runner.RunDaily(ctx, day, nil)
	switch {
	case errors.Is(err, core.ErrNoData):
		// weekend or holiday without bars
		s.logger.Info("no market data for scheduled day", zap.String("date", day.Format(core.DateLayout)))
	case err != nil:
		s.logger.Error("scheduled run failed", zap.String("date", day.Format(core.DateLayout)), zap.Error(err))
	}

	s.mu.Lock()
	s.running = false
	s.lastRun = summary
	s.lastErr = err
	s.mu.Unlock()
}

// Last returns the outcome of the most recent trigger
func (s *Scheduler) Last() (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// Next returns the next scheduled fire time, zero before Start
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
