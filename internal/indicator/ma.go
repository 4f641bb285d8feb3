// Package indicator holds the arithmetic behind the technical signals.
// Series are ascending; outputs align with the input's tail.
package indicator

// SMA calculates a simple moving average.
// Returns slice of length len(values)-period+1, empty when too short.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}

	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out = append(out, sum/float64(period))

	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out = append(out, sum/float64(period))
	}
	return out
}

// Last returns the final value of a series and false when it is empty
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// Back returns the value n steps before the end, n=0 being the last
func Back(series []float64, n int) (float64, bool) {
	i := len(series) - 1 - n
	if n < 0 || i < 0 {
		return 0, false
	}
	return series[i], true
}
