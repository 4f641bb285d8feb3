package indicator

// Highest returns the rolling maximum over period values
func Highest(values []float64, period int) []float64 {
	return rolling(values, period, func(a, b float64) bool { return a > b })
}

// Lowest returns the rolling minimum over period values
func Lowest(values []float64, period int) []float64 {
	return rolling(values, period, func(a, b float64) bool { return a < b })
}

func rolling(values []float64, period int, better func(a, b float64) bool) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-period+1)
	for end := period; end <= len(values); end++ {
		best := values[end-period]
		for _, v := range values[end-period+1 : end] {
			if better(v, best) {
				best = v
			}
		}
		out = append(out, best)
	}
	return out
}

// ArgMin returns the index of the smallest value, the latest on ties, or -1
func ArgMin(values []float64) int {
	idx := -1
	for i, v := range values {
		if idx < 0 || v <= values[idx] {
			idx = i
		}
	}
	return idx
}
