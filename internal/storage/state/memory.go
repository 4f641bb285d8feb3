package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
)

// MemoryStore is an in-memory state store.
type MemoryStore struct {
	days        map[string]map[string]Day
	transitions map[string]map[string]Transition
	runs        []Run
	mu          sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		days:        make(map[string]map[string]Day),
		transitions: make(map[string]map[string]Transition),
	}
}

func (m *MemoryStore) PrevState(ctx context.Context, ticker string, day time.Time) (core.State, policy.Attrs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	before := m.before(ticker, day, 1)
	if len(before) == 0 {
		return core.StateNoTrade, policy.Attrs{}, nil
	}
	return before[0].State, before[0].Attrs.Clone(), nil
}

func (m *MemoryStore) RecentDays(ctx context.Context, ticker string, asOf time.Time, limit int) ([]policy.HistoryDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	before := m.before(ticker, asOf, limit)
	out := make([]policy.HistoryDay, len(before))
	for i, d := range before {
		out[i] = d.HistoryDay()
	}
	return out, nil
}

func (m *MemoryStore) Days(ctx context.Context, ticker string, limit int) ([]Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.before(ticker, time.Time{}, limit), nil
}

func (m *MemoryStore) CommitRun(ctx context.Context, batch Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range batch.Days {
		key := d.Date.Format(core.DateLayout)
		byDay, ok := m.days[d.Ticker]
		if !ok {
			byDay = make(map[string]Day)
			m.days[d.Ticker] = byDay
		}
		d.Attrs = d.Attrs.Clone()
		byDay[key] = d
		delete(m.transitions[d.Ticker], key)
	}
	for _, tr := range batch.Transitions {
		byDay, ok := m.transitions[tr.Ticker]
		if !ok {
			byDay = make(map[string]Transition)
			m.transitions[tr.Ticker] = byDay
		}
		byDay[tr.Date.Format(core.DateLayout)] = tr
	}

	runs := m.runs[:0]
	for _, r := range m.runs {
		if r.ID != batch.Run.ID {
			runs = append(runs, r)
		}
	}
	m.runs = append(runs, batch.Run)
	return nil
}

func (m *MemoryStore) Transitions(ctx context.Context, ticker string, limit int) ([]Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Transition, 0, len(m.transitions[ticker]))
	for _, tr := range m.transitions[ticker] {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]Run(nil), m.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// before returns days strictly before day (all days when day is zero),
// newest first. Caller holds the lock.
func (m *MemoryStore) before(ticker string, day time.Time, limit int) []Day {
	cutoff := day.Format(core.DateLayout)
	var out []Day
	for key, d := range m.days[ticker] {
		if day.IsZero() || key < cutoff {
			d.Attrs = d.Attrs.Clone()
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
