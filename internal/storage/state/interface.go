// Package state persists daily ticker states, transitions and runs.
package state

import (
	"context"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

// Run statuses
const (
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// Day is one persisted ticker-day
type Day struct {
	Ticker     string
	Date       time.Time
	State      core.State
	Reasons    []core.ReasonCode
	Attrs      policy.Attrs
	SignalKeys []signal.Key
	RunID      string
}

// Transition is one persisted state change
type Transition struct {
	Ticker  string
	Date    time.Time
	From    core.State
	To      core.State
	Reasons []core.ReasonCode
	RunID   string
}

// Run describes one daily evaluation run
type Run struct {
	ID            string
	AsOf          time.Time
	PolicyVersion string
	StartedAt     time.Time
	FinishedAt    time.Time
	Tickers       int
	Transitions   int
	Status        string
}

// Batch is everything one run writes
type Batch struct {
	Run         Run
	Days        []Day
	Transitions []Transition
}

// Store defines state persistence
type Store interface {
	// PrevState returns the latest state strictly before day, or NO_TRADE
	// with zero attrs when the ticker has none.
	PrevState(ctx context.Context, ticker string, day time.Time) (core.State, policy.Attrs, error)

	// RecentDays returns up to limit days strictly before asOf, newest first.
	RecentDays(ctx context.Context, ticker string, asOf time.Time, limit int) ([]policy.HistoryDay, error)

	// CommitRun writes a run atomically. Rows for the same ticker and day
	// are replaced.
	CommitRun(ctx context.Context, batch Batch) error

	// Days returns the latest days of ticker, newest first.
	Days(ctx context.Context, ticker string, limit int) ([]Day, error)

	// Transitions returns the latest transitions of ticker, newest first.
	Transitions(ctx context.Context, ticker string, limit int) ([]Transition, error)

	// Runs returns the latest runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)
}

// HistoryDay converts a stored day to the shape policies read
func (d Day) HistoryDay() policy.HistoryDay {
	h := policy.HistoryDay{
		Date:    d.Date,
		State:   d.State,
		Reasons: append([]core.ReasonCode(nil), d.Reasons...),
	}
	if d.SignalKeys != nil {
		h.SignalKeys = append([]signal.Key{}, d.SignalKeys...)
	}
	if d.Attrs.Status != nil && d.Attrs.Status.ChurnGuardHits != nil {
		hits := *d.Attrs.Status.ChurnGuardHits
		h.ChurnGuardHits = &hits
	}
	return h
}
