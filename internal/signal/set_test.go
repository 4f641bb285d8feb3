package signal

import (
	"errors"
	"testing"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_RejectsDuplicates(t *testing.T) {
	_, err := NewSet(Flag(TrendStarted), Signal{Key: TrendStarted, Value: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateKey))
}

func TestNewSet_KeepsValues(t *testing.T) {
	s, err := NewSet(Signal{Key: MA20Reclaimed, Value: 0.75}, Flag(EntrySetupValid))
	require.NoError(t, err)

	sig, ok := s.Get(MA20Reclaimed)
	require.True(t, ok)
	assert.Equal(t, 0.75, sig.Value)
	assert.Equal(t, 2, s.Len())
}

func TestOf_CollapsesRepeats(t *testing.T) {
	s := Of(NoSignal, NoSignal)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.OnlyNoSignal())
}

func TestSet_ZeroValue(t *testing.T) {
	var s Set
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(NoSignal))
	assert.Empty(t, s.Keys())
}

func TestSet_Merge(t *testing.T) {
	a := Of(TrendStarted)
	b := Of(DowTrendDown, DowLastLowLL)

	merged, err := a.Merge(b)
	require.NoError(t, err)
	assert.Equal(t, []Key{DowLastLowLL, DowTrendDown, TrendStarted}, merged.Keys())

	// inputs are untouched
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, b.Len())

	_, err = a.Merge(Of(TrendStarted))
	assert.True(t, errors.Is(err, core.ErrDuplicateKey))
}

func TestSet_Without(t *testing.T) {
	s := Of(NoSignal, DowTrendNeutral)
	w := s.Without(DowTrendNeutral)

	assert.True(t, w.OnlyNoSignal())
	assert.True(t, s.Has(DowTrendNeutral))
}

func TestSet_HasAny(t *testing.T) {
	s := Of(Invalidated)
	assert.True(t, s.HasAny(DataInsufficient, Invalidated))
	assert.False(t, s.HasAny(TrendStarted, TrendMatured))
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("DOW_BOS_BREAK_DOWN")
	require.NoError(t, err)
	assert.Equal(t, DowBosBreakDown, k)

	_, err = ParseKey("RSI_OVERSOLD")
	assert.True(t, errors.Is(err, core.ErrUnknownSignal))
}

func TestAllKeys_Unique(t *testing.T) {
	seen := map[Key]bool{}
	for _, k := range AllKeys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
}

func TestSet_Quiet(t *testing.T) {
	assert.True(t, Of(NoSignal).Quiet())
	assert.True(t, Of(NoSignal, DowTrendNeutral, MA20Reclaimed).Quiet())
	assert.False(t, Of(NoSignal, EdgeGone).Quiet())
	assert.False(t, Of(DowTrendNeutral).Quiet())
	assert.False(t, Set{}.Quiet())
}

func TestKey_IsPolicy(t *testing.T) {
	for _, k := range PolicyKeys {
		assert.True(t, k.IsValid(), k)
		assert.True(t, k.IsPolicy(), k)
	}
	assert.False(t, DowNewLL.IsPolicy())
	assert.False(t, HigherLowConfirmed.IsPolicy())
}
