// Package provider turns stored daily bars into the signal set a policy
// decides on.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/dow"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"go.uber.org/zap"
)

// BarReader reads stored bars
type BarReader interface {
	// Bars returns up to limit bars dated on or before until, newest first.
	Bars(ctx context.Context, ticker string, until time.Time, limit int) ([]core.OHLCV, error)
}

// Config holds provider parameters
type Config struct {
	Lookback     int
	MinBars      int
	DowEnabled   bool
	Dow          dow.Config
	FactsEpsilon float64
}

// DefaultConfig returns the production parameters
func DefaultConfig() Config {
	return Config{
		Lookback:     150,
		MinBars:      MinTechnicalBars,
		DowEnabled:   true,
		Dow:          dow.DefaultConfig(),
		FactsEpsilon: dow.DefaultFactsEpsilon,
	}
}

// Validate checks provider parameters
func (c Config) Validate() error {
	if c.MinBars < MinTechnicalBars {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("min_bars must be at least %d", MinTechnicalBars))
	}
	if c.Lookback < c.MinBars {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("lookback %d is shorter than min_bars %d", c.Lookback, c.MinBars))
	}
	if c.FactsEpsilon < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("facts epsilon must not be negative"))
	}
	if c.DowEnabled {
		return c.Dow.Validate()
	}
	return nil
}

// Provider computes daily signals from stored bars
type Provider struct {
	bars     BarReader
	cfg      Config
	detector *dow.Detector
	logger   *zap.Logger
}

// New creates a provider
func New(bars BarReader, cfg Config, logger *zap.Logger) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		bars:     bars,
		cfg:      cfg,
		detector: dow.NewDetector(cfg.Dow, logger.Named("dow")),
		logger:   logger,
	}, nil
}

// Signals returns the signal set of ticker on date. Missing or short data
// yields DATA_INSUFFICIENT rather than an error; only read failures are
// returned as errors.
func (p *Provider) Signals(ctx context.Context, ticker string, date time.Time) (signal.Set, error) {
	day := core.TruncateDay(date)
	rows, err := p.bars.Bars(ctx, ticker, day, p.cfg.Lookback)
	if err != nil {
		return signal.Set{}, fmt.Errorf("loading bars for %s: %w", ticker, err)
	}

	if reason := p.insufficient(rows, day); reason != "" {
		p.logger.Debug("data insufficient",
			zap.String("run_id", core.RunID(ctx)),
			zap.String("ticker", ticker),
			zap.String("reason", reason),
			zap.Int("bars", len(rows)),
		)
		return signal.Of(signal.DataInsufficient), nil
	}

	asc := make([]core.OHLCV, len(rows))
	for i, row := range rows {
		asc[len(rows)-1-i] = row
	}
	set := signal.Of(technicalKeys(newSeries(asc))...)

	if p.cfg.DowEnabled {
		res := p.detector.Detect(dow.FromDescending(rows), core.RunID(ctx))
		facts := dow.ComputeFacts(res.Markers, day, p.cfg.FactsEpsilon)
		merged, err := set.Merge(facts.Set())
		if err != nil {
			return signal.Set{}, fmt.Errorf("merging structure facts for %s: %w", ticker, err)
		}
		set = merged
	}
	return set, nil
}

func (p *Provider) insufficient(rows []core.OHLCV, day time.Time) string {
	if len(rows) == 0 {
		return "no bars"
	}
	if !core.TruncateDay(rows[0].Time).Equal(day) {
		return "no bar on date"
	}
	if len(rows) < p.cfg.MinBars {
		return "short history"
	}
	for _, row := range rows {
		if !row.IsValid() {
			return "invalid bar"
		}
	}
	return ""
}
