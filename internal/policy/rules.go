package policy

import (
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

// rule is one row of a decision table: the first row whose predicate holds
// decides the next state and the reason it is tagged with.
type rule struct {
	name   string
	when   func(signal.Set) bool
	next   core.State
	reason core.ReasonCode
}

func has(k signal.Key) func(signal.Set) bool {
	return func(s signal.Set) bool { return s.Has(k) }
}

func always(signal.Set) bool { return true }

// Hard exclusions apply from every state, ahead of the per-state tables.
var hardExclusions = []rule{
	{name: "data_insufficient", when: has(signal.DataInsufficient), next: core.StateNoTrade, reason: core.ReasonDataInsufficient},
	{name: "invalidated", when: has(signal.Invalidated), next: core.StateNoTrade, reason: core.ReasonInvalidated},
}

var stateRules = map[core.State][]rule{
	core.StateNoTrade: {
		{name: "trend_started", when: has(signal.TrendStarted), next: core.StateDowntrendEarly, reason: core.ReasonTrendStarted},
	},
	core.StateDowntrendEarly: {
		{name: "trend_matured", when: has(signal.TrendMatured), next: core.StateDowntrendLate, reason: core.ReasonTrendMatured},
		{name: "stabilization_confirmed", when: has(signal.StabilizationConfirmed), next: core.StateStabilizing, reason: core.ReasonStabilizationConfirmed},
		{name: "selling_pressure_eased", when: has(signal.SellingPressureEased), next: core.StateStabilizing, reason: core.ReasonSellingPressureEased},
	},
	core.StateDowntrendLate: {
		{name: "stabilization_confirmed", when: has(signal.StabilizationConfirmed), next: core.StateStabilizing, reason: core.ReasonStabilizationConfirmed},
		{name: "selling_pressure_eased", when: has(signal.SellingPressureEased), next: core.StateStabilizing, reason: core.ReasonSellingPressureEased},
	},
	core.StateEntryWindow: {
		{name: "setup_holds", when: has(signal.EntrySetupValid), next: core.StateEntryWindow, reason: core.ReasonEntryConditionsMet},
		{name: "setup_lost", when: always, next: core.StatePass},
	},
	core.StatePass: {
		{name: "pass_done", when: always, next: core.StateNoTrade},
	},
}

// Reasons attached when no rule fires and the state is kept
var fallbackReasons = map[core.State]core.ReasonCode{
	core.StateNoTrade:        core.ReasonNoSignal,
	core.StateDowntrendEarly: core.ReasonTrendStarted,
	core.StateDowntrendLate:  core.ReasonTrendMatured,
}

// applyRules runs the hard exclusions then the table for prev
func applyRules(prev core.State, signals signal.Set) (core.State, []core.ReasonCode, string) {
	for _, r := range hardExclusions {
		if r.when(signals) {
			return r.next, []core.ReasonCode{r.reason}, r.name
		}
	}
	for _, r := range stateRules[prev] {
		if !r.when(signals) {
			continue
		}
		var reasons []core.ReasonCode
		if r.reason != "" {
			reasons = []core.ReasonCode{r.reason}
		}
		return r.next, reasons, r.name
	}
	if fb, ok := fallbackReasons[prev]; ok {
		return prev, []core.ReasonCode{fb}, "fallback"
	}
	return prev, nil, "hold"
}

// finalizeReasons makes ENTRY_CONDITIONS_MET exclusive and tags a fresh
// trend start unless a hard exclusion is present.
func finalizeReasons(reasons []core.ReasonCode, signals signal.Set) []core.ReasonCode {
	if core.ContainsReason(reasons, core.ReasonEntryConditionsMet) {
		return []core.ReasonCode{core.ReasonEntryConditionsMet}
	}
	if signals.Has(signal.TrendStarted) &&
		!signals.HasAny(signal.DataInsufficient, signal.Invalidated) &&
		!core.ContainsReason(reasons, core.ReasonTrendStarted) {
		reasons = append(reasons, core.ReasonTrendStarted)
	}
	return reasons
}
