// Package collector downloads daily bars from remote market data sources.
package collector

import (
	"context"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Collector defines a source of daily bars
type Collector interface {
	Name() string

	// FetchHistory returns the daily bars of ticker in [start, end], oldest
	// first. Bar times are calendar days at UTC midnight.
	FetchHistory(ctx context.Context, ticker string, start, end time.Time) ([]core.OHLCV, error)
}
