package policy

import (
	"errors"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

var asOf = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type staticHistory struct {
	days  []HistoryDay
	err   error
	calls int
}

func (h *staticHistory) RecentDays(ticker string, at time.Time, limit int) ([]HistoryDay, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.days) {
		return h.days[:limit], nil
	}
	return h.days, nil
}

var errHistory = errors.New("history backend down")

// day builds the history day n days before asOf
func day(n int, s core.State, keys ...signal.Key) HistoryDay {
	if keys == nil {
		keys = []signal.Key{}
	}
	return HistoryDay{Date: asOf.AddDate(0, 0, -n), State: s, SignalKeys: keys}
}

// run builds n consecutive days in state s starting yesterday
func run(n int, s core.State, keys ...signal.Key) []HistoryDay {
	days := make([]HistoryDay, n)
	for i := range days {
		days[i] = day(i+1, s, keys...)
	}
	return days
}

func request(prev core.State, age int, keys ...signal.Key) Request {
	return Request{
		Ticker:    "NOKIA",
		AsOf:      asOf,
		PrevState: prev,
		PrevAttrs: Attrs{Age: age},
		Signals:   signal.Of(keys...),
	}
}

func intPtr(v int) *int { return &v }
