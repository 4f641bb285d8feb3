// Package signal models the daily observations a policy decides on.
package signal

import (
	"fmt"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Key identifies one observation about a ticker on a day
type Key string

// Policy keys
const (
	TrendStarted           Key = "TREND_STARTED"
	TrendMatured           Key = "TREND_MATURED"
	SellingPressureEased   Key = "SELLING_PRESSURE_EASED"
	StabilizationConfirmed Key = "STABILIZATION_CONFIRMED"
	EntrySetupValid        Key = "ENTRY_SETUP_VALID"
	Invalidated            Key = "INVALIDATED"
	DataInsufficient       Key = "DATA_INSUFFICIENT"
	NoSignal               Key = "NO_SIGNAL"
	EdgeGone               Key = "EDGE_GONE"
)

// Evidence keys read by the v3 metadata layer
const (
	MA20Reclaimed               Key = "MA20_RECLAIMED"
	HigherLowConfirmed          Key = "HIGHER_LOW_CONFIRMED"
	SlowDriftDetected           Key = "SLOW_DRIFT_DETECTED"
	SharpSellOffDetected        Key = "SHARP_SELL_OFF_DETECTED"
	StructuralDowntrendDetected Key = "STRUCTURAL_DOWNTREND_DETECTED"
)

// Dow structure facts
const (
	DowTrendUp      Key = "DOW_TREND_UP"
	DowTrendDown    Key = "DOW_TREND_DOWN"
	DowTrendNeutral Key = "DOW_TREND_NEUTRAL"

	DowLastLowL   Key = "DOW_LAST_LOW_L"
	DowLastLowHL  Key = "DOW_LAST_LOW_HL"
	DowLastLowLL  Key = "DOW_LAST_LOW_LL"
	DowLastHighH  Key = "DOW_LAST_HIGH_H"
	DowLastHighHH Key = "DOW_LAST_HIGH_HH"
	DowLastHighLH Key = "DOW_LAST_HIGH_LH"

	DowNewLL Key = "DOW_NEW_LL"
	DowNewHH Key = "DOW_NEW_HH"

	DowTrendUpToNeutral   Key = "DOW_TREND_UP_TO_NEUTRAL"
	DowTrendDownToNeutral Key = "DOW_TREND_DOWN_TO_NEUTRAL"
	DowTrendNeutralToUp   Key = "DOW_TREND_NEUTRAL_TO_UP"
	DowTrendNeutralToDown Key = "DOW_TREND_NEUTRAL_TO_DOWN"

	DowReset        Key = "DOW_RESET"
	DowBosBreakUp   Key = "DOW_BOS_BREAK_UP"
	DowBosBreakDown Key = "DOW_BOS_BREAK_DOWN"
)

// AllKeys is the closed set of signal keys.
var AllKeys = []Key{
	TrendStarted, TrendMatured, SellingPressureEased, StabilizationConfirmed,
	EntrySetupValid, Invalidated, DataInsufficient, NoSignal, EdgeGone,
	MA20Reclaimed, HigherLowConfirmed, SlowDriftDetected, SharpSellOffDetected,
	StructuralDowntrendDetected,
	DowTrendUp, DowTrendDown, DowTrendNeutral,
	DowLastLowL, DowLastLowHL, DowLastLowLL,
	DowLastHighH, DowLastHighHH, DowLastHighLH,
	DowNewLL, DowNewHH,
	DowTrendUpToNeutral, DowTrendDownToNeutral, DowTrendNeutralToUp, DowTrendNeutralToDown,
	DowReset, DowBosBreakUp, DowBosBreakDown,
}

var knownKeys = func() map[Key]struct{} {
	m := make(map[Key]struct{}, len(AllKeys))
	for _, k := range AllKeys {
		m[k] = struct{}{}
	}
	return m
}()

// PolicyKeys are the keys the base rule tables read. Evidence and Dow keys
// only feed metadata.
var PolicyKeys = []Key{
	TrendStarted, TrendMatured, SellingPressureEased, StabilizationConfirmed,
	EntrySetupValid, Invalidated, DataInsufficient, NoSignal, EdgeGone,
}

var policyKeys = func() map[Key]struct{} {
	m := make(map[Key]struct{}, len(PolicyKeys))
	for _, k := range PolicyKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsPolicy reports whether k is one of PolicyKeys
func (k Key) IsPolicy() bool {
	_, ok := policyKeys[k]
	return ok
}

// IsValid reports whether k belongs to the closed key set
func (k Key) IsValid() bool {
	_, ok := knownKeys[k]
	return ok
}

func (k Key) String() string {
	return string(k)
}

// ParseKey converts a persisted key name into a Key
func ParseKey(v string) (Key, error) {
	k := Key(v)
	if !k.IsValid() {
		return "", core.WrapError(core.ErrUnknownSignal, fmt.Errorf("%q", v))
	}
	return k, nil
}

// Signal is one observation. Boolean observations carry Value 1.
type Signal struct {
	Key   Key
	Value float64
}

// Flag returns a boolean signal for key
func Flag(key Key) Signal {
	return Signal{Key: key, Value: 1}
}
