package core

import (
	"fmt"
	"sort"
)

// ReasonCode explains why a state was entered or kept
type ReasonCode string

const (
	ReasonTrendStarted           ReasonCode = "TREND_STARTED"
	ReasonTrendMatured           ReasonCode = "TREND_MATURED"
	ReasonStabilizationConfirmed ReasonCode = "STABILIZATION_CONFIRMED"
	ReasonEntryConditionsMet     ReasonCode = "ENTRY_CONDITIONS_MET"
	ReasonEdgeGone               ReasonCode = "EDGE_GONE"
	ReasonInvalidated            ReasonCode = "INVALIDATED"
	ReasonResetToNeutral         ReasonCode = "RESET_TO_NEUTRAL"
	ReasonChurnGuard             ReasonCode = "CHURN_GUARD"
	ReasonDataInsufficient       ReasonCode = "DATA_INSUFFICIENT"
	ReasonNoSignal               ReasonCode = "NO_SIGNAL"
	ReasonSellingPressureEased   ReasonCode = "SELLING_PRESSURE_EASED"
)

// AllReasonCodes is the closed set of reason codes.
var AllReasonCodes = []ReasonCode{
	ReasonTrendStarted,
	ReasonTrendMatured,
	ReasonStabilizationConfirmed,
	ReasonEntryConditionsMet,
	ReasonEdgeGone,
	ReasonInvalidated,
	ReasonResetToNeutral,
	ReasonChurnGuard,
	ReasonDataInsufficient,
	ReasonNoSignal,
	ReasonSellingPressureEased,
}

// ReasonCategory groups reason codes for reporting
type ReasonCategory string

const (
	CategoryTrend    ReasonCategory = "TREND"
	CategoryRecovery ReasonCategory = "RECOVERY"
	CategoryEntry    ReasonCategory = "ENTRY"
	CategoryExit     ReasonCategory = "EXIT"
	CategoryGuard    ReasonCategory = "GUARD"
	CategoryData     ReasonCategory = "DATA"
	CategoryNeutral  ReasonCategory = "NEUTRAL"
)

// ReasonMeta is the registered description of a reason code
type ReasonMeta struct {
	Category ReasonCategory
	Message  string
}

var reasonRegistry = map[ReasonCode]ReasonMeta{
	ReasonTrendStarted:           {CategoryTrend, "downtrend started"},
	ReasonTrendMatured:           {CategoryTrend, "downtrend matured"},
	ReasonStabilizationConfirmed: {CategoryRecovery, "price stabilization confirmed"},
	ReasonEntryConditionsMet:     {CategoryEntry, "entry conditions met"},
	ReasonEdgeGone:               {CategoryExit, "setup edge no longer present"},
	ReasonInvalidated:            {CategoryExit, "structure invalidated"},
	ReasonResetToNeutral:         {CategoryNeutral, "reset to neutral after inactivity"},
	ReasonChurnGuard:             {CategoryGuard, "transition suppressed by churn guard"},
	ReasonDataInsufficient:       {CategoryData, "insufficient price history"},
	ReasonNoSignal:               {CategoryNeutral, "no actionable signal"},
	ReasonSellingPressureEased:   {CategoryRecovery, "selling pressure eased"},
}

func init() {
	if err := ValidateReasonRegistry(); err != nil {
		panic(err)
	}
}

// ValidateReasonRegistry checks that every reason code has metadata and
// that the registry holds no codes outside the closed set.
func ValidateReasonRegistry() error {
	return validateRegistry(AllReasonCodes, reasonRegistry)
}

func validateRegistry(codes []ReasonCode, registry map[ReasonCode]ReasonMeta) error {
	known := make(map[ReasonCode]struct{}, len(codes))
	var missing []string
	for _, c := range codes {
		known[c] = struct{}{}
		meta, ok := registry[c]
		if !ok || meta.Category == "" || meta.Message == "" {
			missing = append(missing, string(c))
		}
	}
	var extra []string
	for c := range registry {
		if _, ok := known[c]; !ok {
			extra = append(extra, string(c))
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return WrapError(ErrConfigInvalid,
		fmt.Errorf("reason registry mismatch: missing=%v extra=%v", missing, extra))
}

// Meta returns the registered metadata for the reason code
func (r ReasonCode) Meta() ReasonMeta {
	return reasonRegistry[r]
}

func (r ReasonCode) String() string {
	return string(r)
}

// ParseReasonCode converts a persisted reason name into a ReasonCode
func ParseReasonCode(v string) (ReasonCode, error) {
	r := ReasonCode(v)
	if _, ok := reasonRegistry[r]; !ok {
		return "", WrapError(ErrUnknownReason, fmt.Errorf("%q", v))
	}
	return r, nil
}

// ContainsReason reports whether code is in reasons
func ContainsReason(reasons []ReasonCode, code ReasonCode) bool {
	for _, r := range reasons {
		if r == code {
			return true
		}
	}
	return false
}
