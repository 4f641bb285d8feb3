// Package notifier delivers state transition alerts after a run.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Alert is one committed state transition
type Alert struct {
	RunID   string
	AsOf    time.Time
	Ticker  string
	From    core.State
	To      core.State
	Reasons []core.ReasonCode
}

// String renders "TICKER FROM -> TO (REASON,...)"
func (a Alert) String() string {
	reasons := make([]string, len(a.Reasons))
	for i, r := range a.Reasons {
		reasons[i] = string(r)
	}
	return fmt.Sprintf("%s %s -> %s (%s)", a.Ticker, a.From, a.To, strings.Join(reasons, ","))
}

// Notifier defines the interface for transition notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send sends a single alert
	Send(ctx context.Context, alert Alert) error

	// SendBatch sends the alerts of one run together
	SendBatch(ctx context.Context, alerts []Alert) error

	// SendText sends a free-form message such as a run health alert
	SendText(ctx context.Context, subject, text string) error
}

// Filter keeps alerts whose target state is watched. An empty filter keeps
// everything.
type Filter struct {
	states map[core.State]struct{}
}

// NewFilter watches the given target states
func NewFilter(states ...core.State) Filter {
	f := Filter{states: make(map[core.State]struct{}, len(states))}
	for _, s := range states {
		f.states[s] = struct{}{}
	}
	return f
}

// Select returns the alerts that pass the filter, in order
func (f Filter) Select(alerts []Alert) []Alert {
	if len(f.states) == 0 {
		return alerts
	}
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if _, ok := f.states[a.To]; ok {
			out = append(out, a)
		}
	}
	return out
}
