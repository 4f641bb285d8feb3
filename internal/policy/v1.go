package policy

import (
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"go.uber.org/zap"
)

const (
	historyLimit = 20

	entryWindowMaxAge      = 12
	stabilizingMaxAge      = 20
	stabilizingSetupDays   = 10
	churnPassExitDays      = 7
	churnRepeatSetupDays   = 10
	stabilizationRecency   = 10
	setupFreshnessDays     = 5
	resetWindowDays        = 15
	churnHitResetThreshold = 3
)

// outcome is the branch result before attribute handling
type outcome struct {
	next     core.State
	reasons  []core.ReasonCode
	branch   string
	churnHit bool
}

// V1 is the rule-based policy
type V1 struct {
	history HistoryPort
	logger  *zap.Logger
}

// NewV1 creates a v1 policy
func NewV1(history HistoryPort, logger *zap.Logger) *V1 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V1{history: history, logger: logger}
}

// Version returns the policy version
func (p *V1) Version() string {
	return VersionV1
}

// Decide evaluates the branches in order, the first that applies wins
func (p *V1) Decide(req Request) Decision {
	w := p.loadHistory(req)

	out, ok := p.edgeGone(req, w)
	if !ok {
		out, ok = p.churnGuard(req, w)
	}
	if !ok {
		out, ok = p.entryConditions(req, w)
	}
	if !ok {
		out, ok = p.resetToNeutral(req, w)
	}
	if !ok {
		next, reasons, name := applyRules(req.PrevState, req.Signals)
		out = outcome{next: next, reasons: reasons, branch: "rules/" + name}
	}
	out.reasons = finalizeReasons(out.reasons, req.Signals)

	attrs := nextAttrs(req.PrevState, req.PrevAttrs, out.next, out.churnHit)
	if out.branch == "reset_to_neutral" {
		attrs.Status = nil
	}

	p.logger.Debug("policy decision",
		zap.String("ticker", req.Ticker),
		zap.String("from", req.PrevState.String()),
		zap.String("to", out.next.String()),
		zap.String("branch", out.branch),
		zap.Bool("history", w.available),
	)

	return Decision{NextState: out.next, Reasons: out.reasons, Attrs: &attrs}
}

func (p *V1) loadHistory(req Request) window {
	if p.history == nil || req.Ticker == "" || req.AsOf.IsZero() {
		return window{}
	}
	days, err := p.history.RecentDays(req.Ticker, req.AsOf, historyLimit)
	if err != nil {
		p.logger.Warn("state history unavailable",
			zap.String("ticker", req.Ticker),
			zap.Error(err),
		)
		return window{}
	}

	asOf := core.TruncateDay(req.AsOf)
	kept := days[:0:0]
	for _, d := range days {
		if core.TruncateDay(d.Date).Before(asOf) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return window{}
	}
	return window{days: kept, available: true}
}

func (p *V1) edgeGone(req Request, w window) (outcome, bool) {
	if req.PrevState != core.StateEntryWindow && req.PrevState != core.StateStabilizing {
		return outcome{}, false
	}
	if req.Signals.HasAny(signal.DataInsufficient, signal.Invalidated) {
		return outcome{}, false
	}

	age := req.PrevAttrs.Age
	if w.available {
		if run := w.consecutiveAge(req.PrevState); run > age {
			age = run
		}
	}

	switch req.PrevState {
	case core.StateEntryWindow:
		if age >= entryWindowMaxAge {
			return outcome{next: core.StatePass, reasons: []core.ReasonCode{core.ReasonEdgeGone}, branch: "edge_gone"}, true
		}
	case core.StateStabilizing:
		if age >= stabilizingMaxAge && !recentSetup(req.Signals, w, stabilizingSetupDays) {
			return outcome{next: core.StateNoTrade, reasons: []core.ReasonCode{core.ReasonEdgeGone}, branch: "edge_gone"}, true
		}
	}
	return outcome{}, false
}

func (p *V1) churnGuard(req Request, w window) (outcome, bool) {
	switch req.PrevState {
	case core.StateStabilizing, core.StatePass, core.StateNoTrade, core.StateEntryWindow:
	default:
		return outcome{}, false
	}
	if !req.Signals.Has(signal.EntrySetupValid) ||
		req.Signals.HasAny(signal.StabilizationConfirmed, signal.DataInsufficient, signal.Invalidated) {
		return outcome{}, false
	}
	if !w.available {
		return outcome{}, false
	}
	if !recentPassExit(w) && !repeatSetupWithoutStabilization(w) {
		return outcome{}, false
	}
	return outcome{
		next:     req.PrevState,
		reasons:  []core.ReasonCode{core.ReasonChurnGuard},
		branch:   "churn_guard",
		churnHit: true,
	}, true
}

func (p *V1) entryConditions(req Request, w window) (outcome, bool) {
	if req.PrevState != core.StateStabilizing {
		return outcome{}, false
	}
	if !req.Signals.Has(signal.EntrySetupValid) ||
		req.Signals.HasAny(
			signal.DataInsufficient, signal.Invalidated, signal.EdgeGone,
			signal.NoSignal, signal.TrendStarted, signal.TrendMatured,
		) {
		return outcome{}, false
	}
	if !recentStabilization(req.Signals, w) || !freshSetup(w) {
		return outcome{}, false
	}
	return outcome{
		next:    core.StateEntryWindow,
		reasons: []core.ReasonCode{core.ReasonEntryConditionsMet},
		branch:  "entry_conditions",
	}, true
}

// resetToNeutral reads the whole window, including days of a lifecycle that
// already ended in NO_TRADE.
func (p *V1) resetToNeutral(req Request, w window) (outcome, bool) {
	if req.Signals.HasAny(
		signal.Invalidated, signal.DataInsufficient, signal.TrendStarted,
		signal.TrendMatured, signal.StabilizationConfirmed, signal.EntrySetupValid,
	) {
		return outcome{}, false
	}

	reset := outcome{
		next:    core.StateNoTrade,
		reasons: []core.ReasonCode{core.ReasonResetToNeutral},
		branch:  "reset_to_neutral",
	}
	quietState := req.PrevState == core.StatePass || req.PrevState == core.StateStabilizing

	if !w.available {
		switch {
		case req.Signals.Has(signal.EdgeGone):
			return reset, true
		case req.PrevAttrs.Status.Hits() >= churnHitResetThreshold:
			return reset, true
		case quietState && req.Signals.Quiet() && req.PrevAttrs.Age >= resetWindowDays:
			return reset, true
		}
		return outcome{}, false
	}

	days := w.first(resetWindowDays)
	for _, d := range days {
		if dayHas(d, signal.Invalidated, core.ReasonInvalidated) {
			return outcome{}, false
		}
	}

	if req.Signals.Has(signal.EdgeGone) {
		return reset, true
	}
	for _, d := range days {
		if dayHas(d, signal.EdgeGone, core.ReasonEdgeGone) {
			return reset, true
		}
	}

	hits := req.PrevAttrs.Status.Hits()
	for _, d := range days {
		if d.Hits() > hits {
			hits = d.Hits()
		}
	}
	if hits >= churnHitResetThreshold {
		return reset, true
	}

	if quietState && len(days) == resetWindowDays {
		for _, d := range days {
			if !quietDay(d) {
				return outcome{}, false
			}
		}
		return reset, true
	}
	return outcome{}, false
}

// nextAttrs ages the attributes. Entering or leaving NO_TRADE starts from
// empty attributes; a NO_TRADE day keeps only the churn guard counter.
func nextAttrs(prev core.State, prevAttrs Attrs, next core.State, churnHit bool) Attrs {
	if prev == core.StateNoTrade && next != core.StateNoTrade {
		return Attrs{}
	}
	if next == core.StateNoTrade {
		if prev != core.StateNoTrade {
			return Attrs{}
		}
		a := Attrs{Age: prevAttrs.Age + 1}
		hits := prevAttrs.Status.Hits()
		if churnHit {
			hits++
		}
		if hits > 0 {
			a.Status = &Status{ChurnGuardHits: &hits}
		}
		return a
	}

	a := prevAttrs.Clone()
	if next != prev {
		a.Age = 0
	} else {
		a.Age++
	}
	if churnHit {
		if a.Status == nil {
			a.Status = &Status{}
		}
		hits := a.Status.Hits() + 1
		a.Status.ChurnGuardHits = &hits
	}
	return a
}

// dayHas checks a signal key when the day recorded keys and always checks
// the matching reason code.
func dayHas(d HistoryDay, key signal.Key, reason core.ReasonCode) bool {
	if present, _ := d.HasSignal(key); present {
		return true
	}
	return d.HasReason(reason)
}

// quietDay reports a day whose only policy key was NO_SIGNAL. Without
// recorded keys every reason must be NO_SIGNAL.
func quietDay(d HistoryDay) bool {
	if d.SignalKeys != nil {
		quiet := false
		for _, k := range d.SignalKeys {
			switch {
			case k == signal.NoSignal:
				quiet = true
			case k.IsPolicy():
				return false
			}
		}
		return quiet
	}
	for _, r := range d.Reasons {
		if r != core.ReasonNoSignal {
			return false
		}
	}
	return true
}

func recentSetup(current signal.Set, w window, days int) bool {
	if current.Has(signal.EntrySetupValid) {
		return true
	}
	for _, d := range w.first(days) {
		if dayHas(d, signal.EntrySetupValid, core.ReasonEntryConditionsMet) || d.State == core.StateEntryWindow {
			return true
		}
	}
	return false
}

// recentPassExit looks for an ENTRY_WINDOW -> PASS step in the last days
func recentPassExit(w window) bool {
	recent := w.first(churnPassExitDays)
	for i, d := range recent {
		if d.State != core.StatePass || i+1 >= len(w.days) {
			continue
		}
		if w.days[i+1].State == core.StateEntryWindow {
			return true
		}
	}
	return false
}

// repeatSetupWithoutStabilization walks back from the newest day and
// reports a prior setup not preceded by stabilization in between.
func repeatSetupWithoutStabilization(w window) bool {
	for _, d := range w.first(churnRepeatSetupDays) {
		if dayHas(d, signal.StabilizationConfirmed, core.ReasonStabilizationConfirmed) {
			return false
		}
		if dayHas(d, signal.EntrySetupValid, core.ReasonEntryConditionsMet) {
			return true
		}
	}
	return false
}

func recentStabilization(current signal.Set, w window) bool {
	if current.Has(signal.StabilizationConfirmed) {
		return true
	}
	for _, d := range w.first(stabilizationRecency) {
		if dayHas(d, signal.StabilizationConfirmed, core.ReasonStabilizationConfirmed) {
			return true
		}
	}
	return false
}

// freshSetup requires a setup in the last few days. Days without recorded
// keys fall back to having been in ENTRY_WINDOW. No history means fresh.
func freshSetup(w window) bool {
	if !w.available {
		return true
	}
	for _, d := range w.first(setupFreshnessDays) {
		present, known := d.HasSignal(signal.EntrySetupValid)
		if present || (!known && d.State == core.StateEntryWindow) {
			return true
		}
	}
	return false
}
