package dow

import "errors"

var (
	errWindow    = errors.New("dow window must be at least 1")
	errBreakBars = errors.New("dow break bars must be at least 1")
	errEpsilon   = errors.New("dow epsilons must not be negative")
)
