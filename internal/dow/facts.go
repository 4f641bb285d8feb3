package dow

import (
	"time"

	"github.com/kalletarpila/swingmaster/internal/signal"
)

// DefaultFactsEpsilon is the relative margin a new extreme must clear.
const DefaultFactsEpsilon = 0.001

// TrendChange is a regime flip observed on the as-of day
type TrendChange struct {
	From Trend
	To   Trend
}

// Facts is the structure summary visible on one day
type Facts struct {
	AsOf          time.Time
	Trend         Trend
	LastHigh      Label
	LastLow       Label
	NewHigherHigh bool
	NewLowerLow   bool
	Changes       []TrendChange
	Reset         bool
	Break         Break
}

// ComputeFacts replays markers dated on or before asOf. Markers must be in
// ascending date order, as Detect produces them.
func ComputeFacts(markers []Marker, asOf time.Time, eps float64) Facts {
	f := Facts{AsOf: asOf, Trend: TrendNeutral}

	var prevHigh, prevLow *float64
	for _, m := range markers {
		if m.Date.After(asOf) && !sameDay(m.Date, asOf) {
			break
		}
		today := sameDay(m.Date, asOf)

		switch {
		case m.Label.IsHigh():
			if today && m.Label == LabelHigherHigh && prevHigh != nil && m.PivotPrice > *prevHigh*(1+eps) {
				f.NewHigherHigh = true
			}
			price := m.PivotPrice
			prevHigh = &price
			f.LastHigh = m.Label
		case m.Label.IsLow():
			if today && m.Label == LabelLowerLow && prevLow != nil && m.PivotPrice < *prevLow*(1-eps) {
				f.NewLowerLow = true
			}
			price := m.PivotPrice
			prevLow = &price
			f.LastLow = m.Label
		case m.Label == LabelReset:
			prevHigh, prevLow = nil, nil
			f.LastHigh, f.LastLow = "", ""
			if today {
				f.Reset = true
				f.Break = m.Break
			}
		default:
			// U and D restate what the labels already imply
			continue
		}

		next := deriveTrend(f.LastHigh, f.LastLow)
		if next != f.Trend {
			if today {
				f.Changes = append(f.Changes, TrendChange{From: f.Trend, To: next})
			}
			f.Trend = next
		}
	}

	return f
}

// Keys returns the signal keys the facts assert
func (f Facts) Keys() []signal.Key {
	var keys []signal.Key

	switch f.Trend {
	case TrendUp:
		keys = append(keys, signal.DowTrendUp)
	case TrendDown:
		keys = append(keys, signal.DowTrendDown)
	default:
		keys = append(keys, signal.DowTrendNeutral)
	}

	switch f.LastLow {
	case LabelLow:
		keys = append(keys, signal.DowLastLowL)
	case LabelHigherLow:
		keys = append(keys, signal.DowLastLowHL)
	case LabelLowerLow:
		keys = append(keys, signal.DowLastLowLL)
	}
	switch f.LastHigh {
	case LabelHigh:
		keys = append(keys, signal.DowLastHighH)
	case LabelHigherHigh:
		keys = append(keys, signal.DowLastHighHH)
	case LabelLowerHigh:
		keys = append(keys, signal.DowLastHighLH)
	}

	if f.NewLowerLow {
		keys = append(keys, signal.DowNewLL)
	}
	if f.NewHigherHigh {
		keys = append(keys, signal.DowNewHH)
	}

	seen := map[signal.Key]bool{}
	for _, c := range f.Changes {
		var k signal.Key
		switch {
		case c.From == TrendUp && c.To == TrendNeutral:
			k = signal.DowTrendUpToNeutral
		case c.From == TrendDown && c.To == TrendNeutral:
			k = signal.DowTrendDownToNeutral
		case c.From == TrendNeutral && c.To == TrendUp:
			k = signal.DowTrendNeutralToUp
		case c.From == TrendNeutral && c.To == TrendDown:
			k = signal.DowTrendNeutralToDown
		default:
			continue
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	if f.Reset {
		keys = append(keys, signal.DowReset)
		switch f.Break {
		case BreakUp:
			keys = append(keys, signal.DowBosBreakUp)
		case BreakDown:
			keys = append(keys, signal.DowBosBreakDown)
		}
	}

	return keys
}

// Set returns the facts as a signal set
func (f Facts) Set() signal.Set {
	return signal.Of(f.Keys()...)
}
