package core

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for trading dates everywhere.
const DateLayout = "2006-01-02"

// State represents a ticker's position in the trading lifecycle
type State string

const (
	StateNoTrade        State = "NO_TRADE"
	StateDowntrendEarly State = "DOWNTREND_EARLY"
	StateDowntrendLate  State = "DOWNTREND_LATE"
	StateStabilizing    State = "STABILIZING"
	StateEntryWindow    State = "ENTRY_WINDOW"
	StatePass           State = "PASS"
)

// AllStates lists every state in lifecycle order.
var AllStates = []State{
	StateNoTrade,
	StateDowntrendEarly,
	StateDowntrendLate,
	StateStabilizing,
	StateEntryWindow,
	StatePass,
}

// IsValid reports whether s is one of the known states
func (s State) IsValid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// ParseState converts a persisted state name into a State
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.IsValid() {
		return "", WrapError(ErrUnknownState, fmt.Errorf("%q", v))
	}
	return s, nil
}

// OHLCV represents a daily bar
type OHLCV struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Time   time.Time
}

// IsValid checks if the bar has consistent prices
func (b OHLCV) IsValid() bool {
	return b.Symbol != "" && b.Close > 0 && b.High >= b.Low
}

// TruncateDay drops the clock part of t, keeping the calendar day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD trading date
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", v, err)
	}
	return t, nil
}
