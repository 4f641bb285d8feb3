package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/storage/market"
)

// fetchers bounds concurrent downloads
const fetchers = 4

// Result reports one ticker of a Sync
type Result struct {
	Ticker  string
	Bars    int
	Skipped int // bars dropped as invalid
	Err     error
}

// Sync downloads [from, to] for every ticker and upserts the valid bars.
// Tickers are written in input order after all downloads finish. A failed
// ticker does not stop the others; the returned error joins the failures.
func Sync(ctx context.Context, c Collector, store market.Store, tickers []string, from, to time.Time, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	from, to = core.TruncateDay(from), core.TruncateDay(to)
	if to.Before(from) {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("fetch end %s is before start %s",
			to.Format(core.DateLayout), from.Format(core.DateLayout)))
	}

	results := make([]Result, len(tickers))
	bars := make([][]core.OHLCV, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchers)
	for i, ticker := range tickers {
		g.Go(func() error {
			results[i].Ticker = ticker
			got, err := c.FetchHistory(gctx, ticker, from, to)
			if err != nil {
				results[i].Err = err
				return nil
			}
			for _, b := range got {
				if !b.IsValid() {
					results[i].Skipped++
					continue
				}
				bars[i] = append(bars[i], b)
			}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}

	var errs []error
	for i := range results {
		r := &results[i]
		if r.Err == nil && len(bars[i]) > 0 {
			if err := store.Upsert(ctx, bars[i]); err != nil {
				r.Err = core.WrapError(core.ErrStorageFailed, err)
			} else {
				r.Bars = len(bars[i])
			}
		}

		if r.Err != nil {
			logger.Warn("fetching bars failed",
				zap.String("source", c.Name()),
				zap.String("ticker", r.Ticker),
				zap.Error(r.Err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", r.Ticker, r.Err))
			continue
		}
		logger.Debug("bars stored",
			zap.String("source", c.Name()),
			zap.String("ticker", r.Ticker),
			zap.Int("bars", r.Bars),
			zap.Int("skipped", r.Skipped),
		)
	}
	return results, errors.Join(errs...)
}
