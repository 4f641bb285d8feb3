package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// MemoryStore is an in-memory bar store.
type MemoryStore struct {
	bars map[string]map[string]core.OHLCV
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bars: make(map[string]map[string]core.OHLCV)}
}

func (m *MemoryStore) Bars(ctx context.Context, ticker string, until time.Time, limit int) ([]core.OHLCV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := until.Format(core.DateLayout)
	var out []core.OHLCV
	for day, b := range m.bars[ticker] {
		if day <= cutoff {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, bars []core.OHLCV) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range bars {
		byDay, ok := m.bars[b.Symbol]
		if !ok {
			byDay = make(map[string]core.OHLCV)
			m.bars[b.Symbol] = byDay
		}
		b.Time = core.TruncateDay(b.Time)
		byDay[b.Time.Format(core.DateLayout)] = b
	}
	return nil
}

func (m *MemoryStore) Tickers(ctx context.Context, day time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := day.Format(core.DateLayout)
	var out []string
	for ticker, byDay := range m.bars {
		if _, ok := byDay[key]; ok {
			out = append(out, ticker)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := from.Format(core.DateLayout), to.Format(core.DateLayout)
	seen := make(map[string]time.Time)
	for _, byDay := range m.bars {
		for day, b := range byDay {
			if day >= lo && day <= hi {
				seen[day] = b.Time
			}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
