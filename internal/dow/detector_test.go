package dow

import (
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time {
	return day0.AddDate(0, 0, i)
}

// mkBars builds a series whose high/low sit half a point around the value.
func mkBars(values ...float64) []Bar {
	bars := make([]Bar, len(values))
	for i, v := range values {
		bars[i] = Bar{Date: day(i), Value: v, High: v + 0.5, Low: v - 0.5}
	}
	return bars
}

// upThenBreak forms L, H, HL, HH (trend up at bar 13), then closes twice
// below the structural low at bars 15 and 16, then builds a fresh L and H.
var upThenBreak = []float64{
	12, 11, 10, 11, 12, 14, 13, 12, 11, 12,
	13, 16, 15, 14, 13, 10, 9, 8, 7, 8,
	9, 10, 11, 10, 9,
}

func labels(markers []Marker) []Label {
	out := make([]Label, len(markers))
	for i, m := range markers {
		out[i] = m.Label
	}
	return out
}

func newTestDetector(window int) *Detector {
	cfg := DefaultConfig()
	cfg.Window = window
	return NewDetector(cfg, nil)
}

func TestDetect_SinglePivotHigh(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 20, 13, 12, 11, 10, 9}
	bars := make([]Bar, len(highs))
	for i, h := range highs {
		bars[i] = Bar{Date: day(i), Value: h - 0.5, High: h, Low: h - 1}
	}

	res := newTestDetector(3).Detect(bars, "test")

	require.Len(t, res.Markers, 1)
	m := res.Markers[0]
	assert.Equal(t, LabelHigh, m.Label)
	assert.Equal(t, day(7), m.Date, "marker is dated on the confirmation day")
	assert.Equal(t, day(4), m.PivotDate)
	assert.Equal(t, 20.0, m.PivotPrice)
	require.NotNil(t, res.ActiveHigh)
	assert.Nil(t, res.ActiveLow)
	assert.Equal(t, TrendNeutral, res.Trend)
}

func TestDetect_UpTrendAndBreakOfStructure(t *testing.T) {
	res := newTestDetector(2).Detect(mkBars(upThenBreak...), "test")

	assert.Equal(t, []Label{
		LabelLow, LabelHigh, LabelHigherLow, LabelHigherHigh, LabelUp,
		LabelReset, LabelLow, LabelHigh,
	}, labels(res.Markers))

	wantDates := []int{4, 7, 10, 13, 13, 16, 20, 24}
	for i, d := range wantDates {
		assert.Equal(t, day(d), res.Markers[i].Date, "marker %d", i)
	}

	reset := res.Markers[5]
	assert.Equal(t, BreakDown, reset.Break)
	assert.Equal(t, 10.5, reset.PivotPrice, "reset records the broken structural low")

	// labeling restarts after the reset
	require.NotNil(t, res.ActiveHigh)
	require.NotNil(t, res.ActiveLow)
	assert.Equal(t, 11.5, res.ActiveHigh.Price)
	assert.Equal(t, 6.5, res.ActiveLow.Price)
	assert.Equal(t, TrendNeutral, res.Trend)
}

func TestDetect_ResetClearsStructure(t *testing.T) {
	// stop right on the reset bar
	res := newTestDetector(2).Detect(mkBars(upThenBreak[:17]...), "test")

	last := res.Markers[len(res.Markers)-1]
	assert.Equal(t, LabelReset, last.Label)
	assert.Nil(t, res.ActiveHigh)
	assert.Nil(t, res.ActiveLow)
	assert.Equal(t, TrendNeutral, res.Trend)
}

func TestDetect_SingleBreakDoesNotReset(t *testing.T) {
	values := append([]float64{}, upThenBreak[:16]...)
	values = append(values, 12)

	res := newTestDetector(2).Detect(mkBars(values...), "test")

	for _, m := range res.Markers {
		assert.NotEqual(t, LabelReset, m.Label)
	}
	assert.Equal(t, TrendUp, res.Trend)
}

func TestDetect_DownTrend(t *testing.T) {
	mirrored := make([]float64, 14)
	for i := range mirrored {
		mirrored[i] = 30 - upThenBreak[i]
	}

	res := newTestDetector(2).Detect(mkBars(mirrored...), "test")

	assert.Equal(t, []Label{
		LabelHigh, LabelLow, LabelLowerHigh, LabelLowerLow, LabelDown,
	}, labels(res.Markers))
	assert.Equal(t, TrendDown, res.Trend)
	// a lower high never replaces the active high
	require.NotNil(t, res.ActiveHigh)
	assert.Equal(t, 20.5, res.ActiveHigh.Price)
	assert.Equal(t, 13.5, res.ActiveLow.Price)
}

func TestDetect_NearDuplicateIgnored(t *testing.T) {
	res := newTestDetector(2).Detect(mkBars(12, 11, 10, 11, 12, 11, 10, 11, 12), "test")

	assert.Equal(t, []Label{LabelLow, LabelHigh}, labels(res.Markers))
}

func TestDetect_LowAboveActiveHighIsReclassified(t *testing.T) {
	res := newTestDetector(1).Detect(mkBars(10, 12, 11, 13, 14, 14, 13.6, 15), "test")

	require.Len(t, res.Markers, 3)
	assert.Equal(t, []Label{LabelHigh, LabelLow, LabelHigherHigh}, labels(res.Markers))
	assert.InDelta(t, 13.1, res.Markers[2].PivotPrice, 1e-9)
	assert.InDelta(t, 13.1, res.ActiveHigh.Price, 1e-9)
}

func TestDetect_ShortSeries(t *testing.T) {
	res := newTestDetector(3).Detect(mkBars(1, 2, 3), "test")
	assert.Empty(t, res.Markers)
	assert.Equal(t, TrendNeutral, res.Trend)

	res = newTestDetector(3).Detect(nil, "test")
	assert.Empty(t, res.Markers)
}

func TestDetect_CausalPrefix(t *testing.T) {
	full := newTestDetector(2).Detect(mkBars(upThenBreak...), "test")

	for cut := 1; cut <= len(upThenBreak); cut++ {
		prefix := newTestDetector(2).Detect(mkBars(upThenBreak[:cut]...), "test")
		asOf := day(cut - 1)

		var want []Marker
		for _, m := range full.Markers {
			if !m.Date.After(asOf) {
				want = append(want, m)
			}
		}
		assert.Equal(t, want, prefix.Markers, "prefix of %d bars", cut)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Window = 0
	assert.ErrorIs(t, cfg.Validate(), core.ErrConfigInvalid)

	cfg = DefaultConfig()
	cfg.BreakBars = 0
	assert.Error(t, cfg.Validate())
}

func TestFromDescending(t *testing.T) {
	rows := []core.OHLCV{
		{Symbol: "X", High: 12, Low: 10, Close: 11, Time: day(2).Add(15 * time.Hour)},
		{Symbol: "X", High: 11, Low: 9, Close: 10, Time: day(1)},
		{Symbol: "X", High: 10, Low: 8, Close: 9, Time: day(0)},
	}

	bars := FromDescending(rows)

	require.Len(t, bars, 3)
	assert.Equal(t, day(0), bars[0].Date)
	assert.Equal(t, day(2), bars[2].Date)
	assert.Equal(t, 11.0, bars[2].Value)
	assert.Equal(t, 12.0, bars[2].High)
}

func TestFacts_SetContainsTrendKey(t *testing.T) {
	f := ComputeFacts(nil, day(0), DefaultFactsEpsilon)
	assert.True(t, f.Set().Has(signal.DowTrendNeutral))
	assert.Equal(t, 1, f.Set().Len())
}
