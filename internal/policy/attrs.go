package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DeclineProfile classifies how the downtrend unfolded
type DeclineProfile string

const (
	DeclineUnknown             DeclineProfile = "UNKNOWN"
	DeclineSlowDrift           DeclineProfile = "SLOW_DRIFT"
	DeclineSharpSellOff        DeclineProfile = "SHARP_SELL_OFF"
	DeclineStructuralDowntrend DeclineProfile = "STRUCTURAL_DOWNTREND"
)

// IsSpecific reports whether the profile carries a classification
func (p DeclineProfile) IsSpecific() bool {
	return p != "" && p != DeclineUnknown
}

// DowntrendOrigin records what opened the lifecycle
type DowntrendOrigin string

const (
	OriginTrend DowntrendOrigin = "TREND"
	OriginSlow  DowntrendOrigin = "SLOW"
)

// DowntrendEntryType records whether structure confirmed the downtrend entry
type DowntrendEntryType string

const (
	EntryTypeDowConfirmed DowntrendEntryType = "DOW_CONFIRMED"
	EntryTypeSignalOnly   DowntrendEntryType = "SIGNAL_ONLY"
)

// StabilizationPhase tracks progress inside STABILIZING
type StabilizationPhase string

const (
	PhaseEarlyStabilization StabilizationPhase = "EARLY_STABILIZATION"
	PhaseBaseBuilding       StabilizationPhase = "BASE_BUILDING"
	PhaseEarlyReversal      StabilizationPhase = "EARLY_REVERSAL"
)

// EntryQuality grades the evidence behind an entry window
type EntryQuality string

const (
	QualityA      EntryQuality = "A"
	QualityB      EntryQuality = "B"
	QualityLegacy EntryQuality = "LEGACY"
)

// Attrs is the per-ticker, per-day metadata carried with a state
type Attrs struct {
	Confidence *int
	Age        int
	Status     *Status
}

// Clone returns a deep copy
func (a Attrs) Clone() Attrs {
	out := Attrs{Age: a.Age}
	if a.Confidence != nil {
		c := *a.Confidence
		out.Confidence = &c
	}
	if a.Status != nil {
		out.Status = a.Status.Clone()
	}
	return out
}

// Aged returns a copy one day older
func (a Attrs) Aged() Attrs {
	out := a.Clone()
	out.Age++
	return out
}

// Status holds policy extension fields. Fields written by newer policy
// versions are zero when a row from an older version is decoded. Keys this
// version does not know are kept in Extra and written back untouched.
type Status struct {
	ChurnGuardHits     *int               `json:"churn_guard_hits,omitempty"`
	DowntrendOrigin    DowntrendOrigin    `json:"downtrend_origin,omitempty"`
	DeclineProfile     DeclineProfile     `json:"decline_profile,omitempty"`
	StabilizationPhase StabilizationPhase `json:"stabilization_phase,omitempty"`
	EntryGate          string             `json:"entry_gate,omitempty"`
	EntryQuality       EntryQuality       `json:"entry_quality,omitempty"`
	DowntrendEntryType DowntrendEntryType `json:"downtrend_entry_type,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var statusKeys = map[string]struct{}{
	"churn_guard_hits":     {},
	"downtrend_origin":     {},
	"decline_profile":      {},
	"stabilization_phase":  {},
	"entry_gate":           {},
	"entry_quality":        {},
	"downtrend_entry_type": {},
}

// statusFields has the same fields as Status without its methods
type statusFields Status

// MarshalJSON writes known fields plus the pass-through keys
func (s Status) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(statusFields(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(s.Extra)+len(statusKeys))
	for k, v := range s.Extra {
		if _, ok := statusKeys[k]; ok {
			continue
		}
		merged[k] = v
	}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra
func (s *Status) UnmarshalJSON(data []byte) error {
	var known statusFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*s = Status(known)
	s.Extra = nil
	for k, v := range all {
		if _, ok := statusKeys[k]; ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[k] = v
	}
	return nil
}

// Clone returns a deep copy, nil for nil
func (s *Status) Clone() *Status {
	if s == nil {
		return nil
	}
	out := *s
	if s.ChurnGuardHits != nil {
		h := *s.ChurnGuardHits
		out.ChurnGuardHits = &h
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &out
}

// Hits returns the churn guard counter, zero when absent
func (s *Status) Hits() int {
	if s == nil || s.ChurnGuardHits == nil {
		return 0
	}
	return *s.ChurnGuardHits
}

// EncodeStatus serializes a status for storage. A nil status encodes as nil.
func EncodeStatus(s *Status) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// DecodeStatus parses a stored status. Empty input and JSON null decode to nil.
func DecodeStatus(raw []byte) (*Status, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var s Status
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &s, nil
}
