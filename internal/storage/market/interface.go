// Package market stores daily OHLCV bars.
package market

import (
	"context"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Store defines bar persistence
type Store interface {
	// Bars returns up to limit bars dated on or before until, newest first.
	Bars(ctx context.Context, ticker string, until time.Time, limit int) ([]core.OHLCV, error)

	// Upsert inserts bars, replacing existing ones for the same ticker and day.
	Upsert(ctx context.Context, bars []core.OHLCV) error

	// Tickers returns the tickers with a bar on day, sorted.
	Tickers(ctx context.Context, day time.Time) ([]string, error)

	// TradingDays returns the distinct days with any bar in [from, to], ascending.
	TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error)
}
