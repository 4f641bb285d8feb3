package signal

import (
	"fmt"
	"sort"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Set is the immutable collection of signals for one ticker on one day.
// The zero value is an empty set.
type Set struct {
	signals map[Key]Signal
}

// NewSet builds a set, rejecting duplicate keys
func NewSet(signals ...Signal) (Set, error) {
	m := make(map[Key]Signal, len(signals))
	for _, s := range signals {
		if _, dup := m[s.Key]; dup {
			return Set{}, core.WrapError(core.ErrDuplicateKey, fmt.Errorf("%s", s.Key))
		}
		m[s.Key] = s
	}
	return Set{signals: m}, nil
}

// Of builds a set of boolean signals. Repeated keys collapse into one.
func Of(keys ...Key) Set {
	m := make(map[Key]Signal, len(keys))
	for _, k := range keys {
		m[k] = Flag(k)
	}
	return Set{signals: m}
}

// Merge returns a new set holding the signals of both sets.
// A key present in both is an error.
func (s Set) Merge(other Set) (Set, error) {
	m := make(map[Key]Signal, len(s.signals)+len(other.signals))
	for k, v := range s.signals {
		m[k] = v
	}
	for k, v := range other.signals {
		if _, dup := m[k]; dup {
			return Set{}, core.WrapError(core.ErrDuplicateKey, fmt.Errorf("%s", k))
		}
		m[k] = v
	}
	return Set{signals: m}, nil
}

// Without returns a copy of the set lacking the given keys
func (s Set) Without(keys ...Key) Set {
	m := make(map[Key]Signal, len(s.signals))
	for k, v := range s.signals {
		m[k] = v
	}
	for _, k := range keys {
		delete(m, k)
	}
	return Set{signals: m}
}

// Has reports whether key is present
func (s Set) Has(key Key) bool {
	_, ok := s.signals[key]
	return ok
}

// HasAny reports whether any of keys is present
func (s Set) HasAny(keys ...Key) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// Get returns the signal for key
func (s Set) Get(key Key) (Signal, bool) {
	sig, ok := s.signals[key]
	return sig, ok
}

// Keys returns the present keys in lexical order
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s.signals))
	for k := range s.signals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of signals
func (s Set) Len() int {
	return len(s.signals)
}

// OnlyNoSignal reports whether the set is exactly {NO_SIGNAL}
func (s Set) OnlyNoSignal() bool {
	return len(s.signals) == 1 && s.Has(NoSignal)
}

// Quiet reports whether NO_SIGNAL is the only policy key present. Evidence
// and Dow keys may ride along.
func (s Set) Quiet() bool {
	if !s.Has(NoSignal) {
		return false
	}
	for k := range s.signals {
		if k != NoSignal && k.IsPolicy() {
			return false
		}
	}
	return true
}
