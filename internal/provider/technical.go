package provider

import (
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/indicator"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

// MinTechnicalBars is the shortest history the technical rules can read:
// a 50-bar average plus 20 bars of its slope.
const MinTechnicalBars = 70

const (
	fastPeriod = 20
	slowPeriod = 50
	atrPeriod  = 14
	slopeBars  = 20

	maturedBelowDays   = 10
	sharpDropPct       = 0.10
	sharpDropATR       = 2.0
	slowDriftFloor     = -0.08
	slowDriftMaxATRPct = 0.03
	invalidationATR    = 2.0
	stabilizationAge   = 5
	stabilizationLift  = 0.5
	easedRangeATR      = 1.5
	edgeGoneATR        = 1.0
)

// series is an ascending price history
type series struct {
	closes []float64
	highs  []float64
	lows   []float64
}

func newSeries(asc []core.OHLCV) series {
	s := series{
		closes: make([]float64, len(asc)),
		highs:  make([]float64, len(asc)),
		lows:   make([]float64, len(asc)),
	}
	for i, b := range asc {
		s.closes[i] = b.Close
		s.highs[i] = b.High
		s.lows[i] = b.Low
	}
	return s
}

// technicalKeys evaluates the indicator rules on the last bar
func technicalKeys(s series) []signal.Key {
	c, h, l := s.closes, s.highs, s.lows
	t := len(c) - 1

	fast := indicator.SMA(c, fastPeriod)
	slow := indicator.SMA(c, slowPeriod)
	atrs := indicator.ATR(h, l, c, atrPeriod)
	if len(slow) <= slopeBars || len(atrs) == 0 {
		return nil
	}

	c0, c1 := c[t], c[t-1]
	ma20, _ := indicator.Last(fast)
	ma20Prev, _ := indicator.Back(fast, 1)
	ma50, _ := indicator.Last(slow)
	ma50Prev, _ := indicator.Back(slow, 1)
	ma50Old, _ := indicator.Back(slow, slopeBars)
	atr, _ := indicator.Last(atrs)

	below := c0 < ma50
	recentLows := l[t-4 : t+1]
	priorLows := l[t-9 : t-4]

	var keys []signal.Key
	add := func(ok bool, k signal.Key) {
		if ok {
			keys = append(keys, k)
		}
	}

	add(c1 >= ma50Prev && below, signal.TrendStarted)
	add(ma20Prev >= ma50Prev && ma20 < ma50 && closesBelow(c, slow, slopeBars) >= maturedBelowDays, signal.TrendMatured)

	add(c0 < lowest(l[t-20:t])-invalidationATR*atr, signal.Invalidated)

	lowWindow := l[t-19 : t+1]
	lowIdx := indicator.ArgMin(lowWindow)
	lowAge := len(lowWindow) - 1 - lowIdx
	add(below && lowAge >= stabilizationAge && c0 > lowWindow[lowIdx]+stabilizationLift*atr, signal.StabilizationConfirmed)

	rng := highest(h[t-4:t+1]) - lowest(recentLows)
	add(below && rng <= easedRangeATR*atr && lowest(recentLows) >= lowest(priorLows), signal.SellingPressureEased)

	add(c0 > ma20 && c0 > highest(h[t-5:t]), signal.EntrySetupValid)
	add(closedAbove(c, fast, 5) && c0 < ma20-edgeGoneATR*atr, signal.EdgeGone)

	add(c1 <= ma20Prev && c0 > ma20, signal.MA20Reclaimed)
	add(lowest(recentLows) > lowest(priorLows) && c0 > c[t-5], signal.HigherLowConfirmed)

	drop5 := (c0 - c[t-5]) / c[t-5]
	add(drop5 <= -sharpDropPct || c1-c0 > sharpDropATR*atr, signal.SharpSellOffDetected)

	drift := (ma50 - ma50Old) / ma50Old
	add(below && drift < 0 && drift > slowDriftFloor && atr/c0 < slowDriftMaxATRPct, signal.SlowDriftDetected)
	add(ma20 < ma50 && ma50 < ma50Old && below, signal.StructuralDowntrendDetected)

	for _, k := range keys {
		if k.IsPolicy() {
			return keys
		}
	}
	return append(keys, signal.NoSignal)
}

// closesBelow counts the last n closes under the aligned average
func closesBelow(closes, avg []float64, n int) int {
	count := 0
	for i := 0; i < n; i++ {
		c, ok1 := indicator.Back(closes, i)
		a, ok2 := indicator.Back(avg, i)
		if ok1 && ok2 && c < a {
			count++
		}
	}
	return count
}

// closedAbove reports a close over the aligned average in the n bars
// before the last one
func closedAbove(closes, avg []float64, n int) bool {
	for i := 1; i <= n; i++ {
		c, ok1 := indicator.Back(closes, i)
		a, ok2 := indicator.Back(avg, i)
		if ok1 && ok2 && c > a {
			return true
		}
	}
	return false
}

func lowest(values []float64) float64 {
	return indicator.Lowest(values, len(values))[0]
}

func highest(values []float64) float64 {
	return indicator.Highest(values, len(values))[0]
}
