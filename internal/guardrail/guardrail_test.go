package guardrail

import (
	"testing"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestApply_GraphClosure(t *testing.T) {
	for _, from := range core.AllStates {
		for _, to := range core.AllStates {
			if from == to || IsAllowed(from, to) {
				continue
			}
			// age is far above any dwell requirement
			res := Apply(from, 100, to)
			assert.False(t, res.Allowed, "%s -> %s", from, to)
			assert.Equal(t, from, res.FinalState)
			assert.Equal(t, []core.ReasonCode{core.ReasonInvalidated}, res.Reasons, "%s -> %s", from, to)
		}
	}
}

func TestApply_MinDwell(t *testing.T) {
	for _, from := range core.AllStates {
		d := MinDwell(from)
		for _, to := range Allowed(from) {
			for age := 0; age < d; age++ {
				res := Apply(from, age, to)
				assert.False(t, res.Allowed, "%s -> %s at age %d", from, to, age)
				assert.Equal(t, from, res.FinalState)
				assert.Equal(t, []core.ReasonCode{core.ReasonChurnGuard}, res.Reasons)
			}

			res := Apply(from, d, to)
			assert.True(t, res.Allowed, "%s -> %s at age %d", from, to, d)
			assert.Equal(t, to, res.FinalState)
			assert.Empty(t, res.Reasons)
		}
	}
}

func TestApply_StayIsAllowed(t *testing.T) {
	for _, s := range core.AllStates {
		res := Apply(s, 0, s)
		assert.True(t, res.Allowed, "%s", s)
		assert.Equal(t, s, res.FinalState)
		assert.Empty(t, res.Reasons)
	}
}

func TestMinDwell_Table(t *testing.T) {
	tests := []struct {
		state core.State
		want  int
	}{
		{core.StateNoTrade, 0},
		{core.StateDowntrendEarly, 2},
		{core.StateDowntrendLate, 3},
		{core.StateStabilizing, 2},
		{core.StateEntryWindow, 1},
		{core.StatePass, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, MinDwell(tt.state))
		})
	}
}

func TestAllowed_ReturnsCopy(t *testing.T) {
	states := Allowed(core.StateNoTrade)
	states[0] = core.StatePass

	assert.True(t, IsAllowed(core.StateNoTrade, core.StateDowntrendEarly))
	assert.False(t, IsAllowed(core.StateNoTrade, core.StatePass))
}

func TestIsAllowed_NoSelfLoops(t *testing.T) {
	for _, s := range core.AllStates {
		assert.False(t, IsAllowed(s, s), "%s", s)
	}
}
