// Package guardrail validates proposed state changes against the lifecycle
// graph and the minimum time a ticker must spend in a state.
package guardrail

import (
	"github.com/kalletarpila/swingmaster/internal/core"
)

var allowed = map[core.State][]core.State{
	core.StateNoTrade:        {core.StateDowntrendEarly},
	core.StateDowntrendEarly: {core.StateDowntrendLate, core.StateStabilizing, core.StateNoTrade},
	core.StateDowntrendLate:  {core.StateStabilizing, core.StateNoTrade},
	core.StateStabilizing:    {core.StateEntryWindow, core.StateNoTrade},
	core.StateEntryWindow:    {core.StatePass, core.StateNoTrade},
	core.StatePass:           {core.StateNoTrade},
}

var minDwell = map[core.State]int{
	core.StateNoTrade:        0,
	core.StateDowntrendEarly: 2,
	core.StateDowntrendLate:  3,
	core.StateStabilizing:    2,
	core.StateEntryWindow:    1,
	core.StatePass:           1,
}

// Allowed returns the states reachable from s in one step
func Allowed(s core.State) []core.State {
	out := make([]core.State, len(allowed[s]))
	copy(out, allowed[s])
	return out
}

// IsAllowed reports whether from -> to is an edge of the lifecycle graph
func IsAllowed(from, to core.State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// MinDwell returns the days a ticker must spend in s before leaving it
func MinDwell(s core.State) int {
	return minDwell[s]
}

// Result is the guardrail verdict on a proposed state
type Result struct {
	Allowed    bool
	FinalState core.State
	Reasons    []core.ReasonCode
}

// Apply checks a proposed state. Staying in the current state is always
// allowed; an illegal edge is blocked as INVALIDATED and a premature exit
// as CHURN_GUARD. Blocked results keep the previous state.
func Apply(prev core.State, prevAge int, proposed core.State) Result {
	if proposed == prev {
		return Result{Allowed: true, FinalState: proposed}
	}
	if !IsAllowed(prev, proposed) {
		return Result{
			FinalState: prev,
			Reasons:    []core.ReasonCode{core.ReasonInvalidated},
		}
	}
	if prevAge < MinDwell(prev) {
		return Result{
			FinalState: prev,
			Reasons:    []core.ReasonCode{core.ReasonChurnGuard},
		}
	}
	return Result{Allowed: true, FinalState: proposed}
}
