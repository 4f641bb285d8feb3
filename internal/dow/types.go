// Package dow detects Dow-theory market structure (swing pivots, structural
// highs and lows, trend regime, break of structure) on a daily series.
package dow

import (
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Label tags a structure marker
type Label string

const (
	LabelHigh       Label = "H"
	LabelHigherHigh Label = "HH"
	LabelLowerHigh  Label = "LH"
	LabelLow        Label = "L"
	LabelHigherLow  Label = "HL"
	LabelLowerLow   Label = "LL"
	LabelUp         Label = "U"
	LabelDown       Label = "D"
	LabelReset      Label = "R"
)

// IsHigh reports whether the label marks a swing high
func (l Label) IsHigh() bool {
	return l == LabelHigh || l == LabelHigherHigh || l == LabelLowerHigh
}

// IsLow reports whether the label marks a swing low
func (l Label) IsLow() bool {
	return l == LabelLow || l == LabelHigherLow || l == LabelLowerLow
}

// Trend is the structural regime
type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

// Break is the direction of a break of structure
type Break string

const (
	BreakNone Break = ""
	BreakUp   Break = "UP"
	BreakDown Break = "DOWN"
)

// Bar is one point of the ascending input series
type Bar struct {
	Date  time.Time
	Value float64
	High  float64
	Low   float64
}

// Marker is a structure event. Date is the day the event became knowable:
// for pivots that is the confirmation day, N bars after PivotDate.
type Marker struct {
	Date       time.Time
	Value      float64
	Label      Label
	PivotPrice float64
	PivotDate  time.Time
	Break      Break
}

// Extreme is an active structural high or low
type Extreme struct {
	Date  time.Time
	Price float64
}

// FromDescending converts bars stored newest-first into an ascending series.
func FromDescending(rows []core.OHLCV) []Bar {
	bars := make([]Bar, len(rows))
	for i, row := range rows {
		bars[len(rows)-1-i] = Bar{
			Date:  core.TruncateDay(row.Time),
			Value: row.Close,
			High:  row.High,
			Low:   row.Low,
		}
	}
	return bars
}

func deriveTrend(lastHigh, lastLow Label) Trend {
	switch {
	case lastHigh == LabelHigherHigh && lastLow == LabelHigherLow:
		return TrendUp
	case lastHigh == LabelLowerHigh && lastLow == LabelLowerLow:
		return TrendDown
	default:
		return TrendNeutral
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
