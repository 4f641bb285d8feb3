// Package api implements the read-only query handlers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// RunView is the JSON shape of a run
type RunView struct {
	ID            string    `json:"id"`
	AsOf          string    `json:"as_of"`
	PolicyVersion string    `json:"policy_version"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	DurationMS    int64     `json:"duration_ms"`
	Tickers       int       `json:"tickers"`
	Transitions   int       `json:"transitions"`
	Status        string    `json:"status"`
}

// DayView is the JSON shape of a ticker-day
type DayView struct {
	Ticker     string       `json:"ticker"`
	Date       string       `json:"date"`
	State      core.State   `json:"state"`
	Reasons    []string     `json:"reasons"`
	SignalKeys []string     `json:"signal_keys,omitempty"`
	Attrs      policy.Attrs `json:"attrs"`
	RunID      string       `json:"run_id"`
}

// TransitionView is the JSON shape of a transition
type TransitionView struct {
	Ticker  string     `json:"ticker"`
	Date    string     `json:"date"`
	From    core.State `json:"from"`
	To      core.State `json:"to"`
	Reasons []string   `json:"reasons"`
	RunID   string     `json:"run_id"`
}

func runView(r state.Run) RunView {
	return RunView{
		ID:            r.ID,
		AsOf:          r.AsOf.Format(core.DateLayout),
		PolicyVersion: r.PolicyVersion,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DurationMS:    r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		Tickers:       r.Tickers,
		Transitions:   r.Transitions,
		Status:        r.Status,
	}
}

func dayView(d state.Day) DayView {
	v := DayView{
		Ticker:  d.Ticker,
		Date:    d.Date.Format(core.DateLayout),
		State:   d.State,
		Reasons: reasonNames(d.Reasons),
		Attrs:   d.Attrs,
		RunID:   d.RunID,
	}
	for _, k := range d.SignalKeys {
		v.SignalKeys = append(v.SignalKeys, k.String())
	}
	return v
}

func transitionView(t state.Transition) TransitionView {
	return TransitionView{
		Ticker:  t.Ticker,
		Date:    t.Date.Format(core.DateLayout),
		From:    t.From,
		To:      t.To,
		Reasons: reasonNames(t.Reasons),
		RunID:   t.RunID,
	}
}

func reasonNames(reasons []core.ReasonCode) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}
	return out
}

// parseLimit reads ?limit=, defaulting to 50 and capped at 1000
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, core.WrapError(core.ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw))
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
