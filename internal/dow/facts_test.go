package dow

import (
	"testing"

	"github.com/kalletarpila/swingmaster/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upMarkers(t *testing.T) []Marker {
	t.Helper()
	res := newTestDetector(2).Detect(mkBars(upThenBreak...), "facts")
	require.NotEmpty(t, res.Markers)
	return res.Markers
}

func TestComputeFacts_ConfirmationLag(t *testing.T) {
	markers := upMarkers(t)

	// the swing high at bar 5 needs bars 6 and 7 to confirm
	before := ComputeFacts(markers, day(6), DefaultFactsEpsilon)
	assert.Equal(t, Label(""), before.LastHigh)
	assert.NotContains(t, before.Keys(), signal.DowLastHighH)

	at := ComputeFacts(markers, day(7), DefaultFactsEpsilon)
	assert.Equal(t, LabelHigh, at.LastHigh)
	assert.Contains(t, at.Keys(), signal.DowLastHighH)
}

func TestComputeFacts_TrendTurnsUp(t *testing.T) {
	markers := upMarkers(t)

	f := ComputeFacts(markers, day(13), DefaultFactsEpsilon)

	assert.Equal(t, TrendUp, f.Trend)
	assert.True(t, f.NewHigherHigh)
	assert.Equal(t, []TrendChange{{From: TrendNeutral, To: TrendUp}}, f.Changes)

	keys := f.Set()
	assert.True(t, keys.Has(signal.DowTrendUp))
	assert.True(t, keys.Has(signal.DowLastHighHH))
	assert.True(t, keys.Has(signal.DowLastLowHL))
	assert.True(t, keys.Has(signal.DowNewHH))
	assert.True(t, keys.Has(signal.DowTrendNeutralToUp))
	assert.False(t, keys.Has(signal.DowReset))
}

func TestComputeFacts_DayAfterChangeHasNoEventFlags(t *testing.T) {
	f := ComputeFacts(upMarkers(t), day(15), DefaultFactsEpsilon)

	assert.Equal(t, TrendUp, f.Trend)
	assert.False(t, f.NewHigherHigh)
	assert.Empty(t, f.Changes)
	assert.NotContains(t, f.Keys(), signal.DowTrendNeutralToUp)
}

func TestComputeFacts_BeforeTrend(t *testing.T) {
	f := ComputeFacts(upMarkers(t), day(12), DefaultFactsEpsilon)

	assert.Equal(t, TrendNeutral, f.Trend)
	assert.Equal(t, LabelHigh, f.LastHigh)
	assert.Equal(t, LabelHigherLow, f.LastLow)
	assert.Contains(t, f.Keys(), signal.DowTrendNeutral)
}

func TestComputeFacts_ResetDay(t *testing.T) {
	f := ComputeFacts(upMarkers(t), day(16), DefaultFactsEpsilon)

	assert.True(t, f.Reset)
	assert.Equal(t, BreakDown, f.Break)
	assert.Equal(t, TrendNeutral, f.Trend)
	assert.Equal(t, Label(""), f.LastHigh)
	assert.Equal(t, Label(""), f.LastLow)

	keys := f.Set()
	assert.True(t, keys.Has(signal.DowReset))
	assert.True(t, keys.Has(signal.DowBosBreakDown))
	assert.True(t, keys.Has(signal.DowTrendUpToNeutral))
	assert.False(t, keys.Has(signal.DowBosBreakUp))
}

func TestComputeFacts_AfterResetRestartsLabels(t *testing.T) {
	f := ComputeFacts(upMarkers(t), day(24), DefaultFactsEpsilon)

	assert.False(t, f.Reset, "reset flags only appear on the reset day")
	assert.Equal(t, LabelLow, f.LastLow)
	assert.Equal(t, LabelHigh, f.LastHigh)
	assert.Equal(t, TrendNeutral, f.Trend)
}

func TestComputeFacts_NewLowerLow(t *testing.T) {
	mirrored := make([]float64, 14)
	for i := range mirrored {
		mirrored[i] = 30 - upThenBreak[i]
	}
	res := newTestDetector(2).Detect(mkBars(mirrored...), "facts")

	f := ComputeFacts(res.Markers, day(13), DefaultFactsEpsilon)

	assert.Equal(t, TrendDown, f.Trend)
	assert.True(t, f.NewLowerLow)
	keys := f.Set()
	assert.True(t, keys.Has(signal.DowNewLL))
	assert.True(t, keys.Has(signal.DowLastLowLL))
	assert.True(t, keys.Has(signal.DowLastHighLH))
	assert.True(t, keys.Has(signal.DowTrendNeutralToDown))
}

func TestComputeFacts_EpsilonSuppressesMarginalExtreme(t *testing.T) {
	markers := []Marker{
		{Date: day(3), Label: LabelLow, PivotPrice: 100},
		{Date: day(6), Label: LabelLowerLow, PivotPrice: 99.95},
	}

	f := ComputeFacts(markers, day(6), DefaultFactsEpsilon)
	assert.Equal(t, LabelLowerLow, f.LastLow)
	assert.False(t, f.NewLowerLow, "a lower low 0.05 percent below is within epsilon")

	f = ComputeFacts(markers, day(6), 0.0001)
	assert.True(t, f.NewLowerLow)
}
