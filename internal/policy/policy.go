// Package policy decides the next lifecycle state of a ticker from its
// previous state, its attributes and the day's signals.
package policy

import (
	"fmt"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"go.uber.org/zap"
)

// Policy versions
const (
	VersionV1 = "v1"
	VersionV2 = "v2"
	VersionV3 = "v3"
)

// Request is the input to one decision
type Request struct {
	Ticker    string
	AsOf      time.Time
	PrevState core.State
	PrevAttrs Attrs
	Signals   signal.Set
}

// Decision is the proposed outcome of one decision
type Decision struct {
	NextState core.State
	Reasons   []core.ReasonCode
	Attrs     *Attrs
}

// Policy decides state transitions for one ticker-day
type Policy interface {
	Version() string
	Decide(req Request) Decision
}

// New creates the policy for a version. history may be nil, in which case
// history-aware rules use their stateless fallbacks.
func New(version string, history HistoryPort, logger *zap.Logger) (Policy, error) {
	switch version {
	case VersionV1:
		return NewV1(history, logger), nil
	case VersionV2:
		return NewV2(history, logger), nil
	case VersionV3:
		return NewV3(history, logger), nil
	default:
		return nil, core.WrapError(core.ErrUnknownPolicy, fmt.Errorf("%q", version))
	}
}

// Versions lists the supported policy versions
func Versions() []string {
	return []string{VersionV1, VersionV2, VersionV3}
}
