// Package evaluator runs one policy decision plus the guardrail check for a
// ticker-day and shapes the result that gets persisted.
package evaluator

import (
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/guardrail"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

// Reasons that outrank a churn guard note when the guardrail blocks
var hardReasons = []core.ReasonCode{
	core.ReasonInvalidated,
	core.ReasonDataInsufficient,
	core.ReasonTrendStarted,
	core.ReasonTrendMatured,
	core.ReasonStabilizationConfirmed,
	core.ReasonEntryConditionsMet,
}

// Transition is a state change worth persisting
type Transition struct {
	From    core.State
	To      core.State
	Reasons []core.ReasonCode
}

// Result is the outcome of one evaluation step
type Result struct {
	PrevState  core.State
	FinalState core.State
	Proposed   core.State
	Reasons    []core.ReasonCode
	Transition *Transition
	Attrs      policy.Attrs
	Blocked    bool
}

// EvaluateStep asks the policy for a decision and runs it past the
// guardrails. Inputs are not modified.
func EvaluateStep(
	prevState core.State,
	prevAttrs policy.Attrs,
	signals signal.Set,
	p policy.Policy,
	ticker string,
	asOf time.Time,
) Result {
	decision := p.Decide(policy.Request{
		Ticker:    ticker,
		AsOf:      asOf,
		PrevState: prevState,
		PrevAttrs: prevAttrs.Clone(),
		Signals:   signals,
	})

	candidate := prevAttrs.Clone()
	if decision.Attrs != nil {
		candidate = decision.Attrs.Clone()
	}

	verdict := guardrail.Apply(prevState, prevAttrs.Age, decision.NextState)

	res := Result{
		PrevState: prevState,
		Proposed:  decision.NextState,
		Blocked:   !verdict.Allowed,
	}
	if verdict.Allowed {
		res.FinalState = decision.NextState
		res.Attrs = candidate
	} else {
		res.FinalState = prevState
		res.Attrs = prevAttrs.Aged()
	}

	guardReasons := verdict.Reasons
	if core.ContainsReason(guardReasons, core.ReasonChurnGuard) && containsAny(decision.Reasons, hardReasons) {
		guardReasons = without(guardReasons, core.ReasonChurnGuard)
	}

	reasons := make([]core.ReasonCode, 0, len(decision.Reasons)+len(guardReasons))
	reasons = append(reasons, decision.Reasons...)
	reasons = append(reasons, guardReasons...)
	res.Reasons = reasons

	if res.FinalState != prevState {
		res.Transition = &Transition{
			From:    prevState,
			To:      res.FinalState,
			Reasons: append([]core.ReasonCode(nil), reasons...),
		}
	}
	return res
}

func containsAny(reasons, wanted []core.ReasonCode) bool {
	for _, w := range wanted {
		if core.ContainsReason(reasons, w) {
			return true
		}
	}
	return false
}

func without(reasons []core.ReasonCode, drop core.ReasonCode) []core.ReasonCode {
	out := make([]core.ReasonCode, 0, len(reasons))
	for _, r := range reasons {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}
