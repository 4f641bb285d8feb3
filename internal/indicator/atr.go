package indicator

import "math"

// TrueRange returns the true range of each bar. The first bar has no prior
// close and uses its high-low range.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := min(len(highs), len(lows), len(closes))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(highs[i]-closes[i-1]))
			tr = math.Max(tr, math.Abs(lows[i]-closes[i-1]))
		}
		out[i] = tr
	}
	return out
}

// ATR calculates Wilder's average true range
func ATR(highs, lows, closes []float64, period int) []float64 {
	tr := TrueRange(highs, lows, closes)
	seed := SMA(tr[:min(len(tr), period)], period)
	if len(seed) == 0 {
		return []float64{}
	}

	out := make([]float64, 0, len(tr)-period+1)
	atr := seed[0]
	out = append(out, atr)
	for i := period; i < len(tr); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out = append(out, atr)
	}
	return out
}
