package policy

import (
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"go.uber.org/zap"
)

// Confidence attached to an entry window by quality
var qualityConfidence = map[EntryQuality]int{
	QualityA:      80,
	QualityB:      65,
	QualityLegacy: 50,
}

// Entry gates
const (
	GateMA20AndHigherLow = "SETUP_MA20_HL"
	GateMA20             = "SETUP_MA20"
	GateHigherLow        = "SETUP_HL"
	GateSetupOnly        = "SETUP_ONLY"
)

// stabilization confirmed this many days in counts as a base
const baseBuildingMinAge = 3

// V3 makes the v2 decisions and annotates the status with lifecycle metadata
type V3 struct {
	base   Policy
	logger *zap.Logger
}

// NewV3 creates a v3 policy
func NewV3(history HistoryPort, logger *zap.Logger) *V3 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V3{base: NewV2(history, logger), logger: logger}
}

// Version returns the policy version
func (p *V3) Version() string {
	return VersionV3
}

// Decide delegates to v2 and annotates the result
func (p *V3) Decide(req Request) Decision {
	d := p.base.Decide(req)
	if d.NextState == core.StateNoTrade || d.Attrs == nil {
		return d
	}

	attrs := d.Attrs.Clone()
	if attrs.Status == nil {
		attrs.Status = &Status{}
	}
	annotate(req, d.NextState, &attrs)
	d.Attrs = &attrs
	return d
}

func annotate(req Request, next core.State, attrs *Attrs) {
	st := attrs.Status
	sig := req.Signals
	entering := next != req.PrevState

	if next == core.StateDowntrendEarly && entering {
		if st.DowntrendOrigin == "" {
			st.DowntrendOrigin = OriginTrend
			if sig.Has(signal.SlowDriftDetected) {
				st.DowntrendOrigin = OriginSlow
			}
		}
		if st.DowntrendEntryType == "" {
			st.DowntrendEntryType = EntryTypeSignalOnly
			if sig.HasAny(signal.DowTrendDown, signal.DowNewLL) {
				st.DowntrendEntryType = EntryTypeDowConfirmed
			}
		}
	}

	if !st.DeclineProfile.IsSpecific() {
		st.DeclineProfile = classifyDecline(sig)
	}

	switch next {
	case core.StateStabilizing:
		if entering || st.StabilizationPhase == "" {
			st.StabilizationPhase = PhaseEarlyStabilization
		} else {
			st.StabilizationPhase = advancePhase(st.StabilizationPhase, sig, attrs.Age)
		}
	case core.StateEntryWindow:
		if entering {
			gate, quality := entryGate(sig)
			st.EntryGate = gate
			st.EntryQuality = quality
			c := qualityConfidence[quality]
			attrs.Confidence = &c
		}
	}
}

func classifyDecline(sig signal.Set) DeclineProfile {
	switch {
	case sig.Has(signal.StructuralDowntrendDetected),
		sig.Has(signal.DowTrendDown) && sig.Has(signal.DowLastLowLL):
		return DeclineStructuralDowntrend
	case sig.Has(signal.SharpSellOffDetected):
		return DeclineSharpSellOff
	case sig.Has(signal.SlowDriftDetected):
		return DeclineSlowDrift
	default:
		return DeclineUnknown
	}
}

// advancePhase moves at most one step forward per day. A new lower low or
// an invalidation sends the phase back to the start.
func advancePhase(phase StabilizationPhase, sig signal.Set, age int) StabilizationPhase {
	if sig.HasAny(signal.Invalidated, signal.DowNewLL) {
		return PhaseEarlyStabilization
	}
	switch phase {
	case PhaseEarlyStabilization:
		if (sig.Has(signal.StabilizationConfirmed) && age >= baseBuildingMinAge) ||
			sig.HasAny(signal.HigherLowConfirmed, signal.DowLastLowHL) {
			return PhaseBaseBuilding
		}
	case PhaseBaseBuilding:
		if sig.HasAny(signal.MA20Reclaimed, signal.DowTrendNeutralToUp, signal.DowLastHighHH) {
			return PhaseEarlyReversal
		}
	}
	return phase
}

func entryGate(sig signal.Set) (string, EntryQuality) {
	ma := sig.Has(signal.MA20Reclaimed)
	hl := sig.HasAny(signal.HigherLowConfirmed, signal.DowLastLowHL)
	switch {
	case ma && hl:
		return GateMA20AndHigherLow, QualityA
	case ma:
		return GateMA20, QualityB
	case hl:
		return GateHigherLow, QualityB
	default:
		return GateSetupOnly, QualityLegacy
	}
}
