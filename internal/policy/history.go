package policy

import (
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

// HistoryDay is one persisted state day.
//
// SignalKeys nil means the keys were not recorded for that day; an empty
// non-nil slice means they were recorded and none fired. ChurnGuardHits nil
// means the counter was absent.
type HistoryDay struct {
	Date           time.Time
	State          core.State
	Reasons        []core.ReasonCode
	SignalKeys     []signal.Key
	ChurnGuardHits *int
}

// HistoryPort reads prior state days for a ticker
type HistoryPort interface {
	// RecentDays returns up to limit days strictly before asOf, newest
	// first. Fewer days than requested is a normal, weaker window.
	RecentDays(ticker string, asOf time.Time, limit int) ([]HistoryDay, error)
}

// HasSignal reports whether key fired that day and whether keys were recorded
func (d HistoryDay) HasSignal(key signal.Key) (present, known bool) {
	if d.SignalKeys == nil {
		return false, false
	}
	for _, k := range d.SignalKeys {
		if k == key {
			return true, true
		}
	}
	return false, true
}

// HasReason reports whether the day carries reason code r
func (d HistoryDay) HasReason(r core.ReasonCode) bool {
	return core.ContainsReason(d.Reasons, r)
}

// Hits returns the churn guard counter, zero when absent
func (d HistoryDay) Hits() int {
	if d.ChurnGuardHits == nil {
		return 0
	}
	return *d.ChurnGuardHits
}

// window is the history seen by one decision, newest first
type window struct {
	days      []HistoryDay
	available bool
}

func (w window) first(n int) []HistoryDay {
	if n > len(w.days) {
		n = len(w.days)
	}
	return w.days[:n]
}

// consecutiveAge counts the leading run of days in state s, expressed like
// Attrs.Age (zero on the first day of the run). It returns -1 if the newest
// day is not in s.
func (w window) consecutiveAge(s core.State) int {
	run := 0
	for _, d := range w.days {
		if d.State != s {
			break
		}
		run++
	}
	return run - 1
}
