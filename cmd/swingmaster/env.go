package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalletarpila/swingmaster/internal/app"
	"github.com/kalletarpila/swingmaster/internal/collector"
	"github.com/kalletarpila/swingmaster/internal/collector/yahoo"
	"github.com/kalletarpila/swingmaster/internal/config"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/logger"
	"github.com/kalletarpila/swingmaster/internal/metrics"
	"github.com/kalletarpila/swingmaster/internal/notifier"
	"github.com/kalletarpila/swingmaster/internal/notifier/email"
	"github.com/kalletarpila/swingmaster/internal/notifier/telegram"
	"github.com/kalletarpila/swingmaster/internal/notifier/webhook"
	"github.com/kalletarpila/swingmaster/internal/provider"
	"github.com/kalletarpila/swingmaster/internal/storage/archive"
	"github.com/kalletarpila/swingmaster/internal/storage/market"
	"github.com/kalletarpila/swingmaster/internal/storage/sqlite"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

// environment is everything a subcommand needs
type environment struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *sql.DB
	bars    market.Store
	states  state.Store
	archive archive.Storage
	metrics *metrics.Registry
}

// withEnvironment handles config, logging and database setup and teardown.
func withEnvironment(ctx context.Context, fn func(ctx context.Context, env *environment) error) error {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	log, err := logger.New(debug || cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	db, err := sqlite.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := archive.New(cfg.ArchiveSettings())
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	env := &environment{
		cfg:     cfg,
		log:     log,
		db:      db,
		bars:    market.NewSQLiteStore(db),
		states:  state.NewSQLiteStore(db, log),
		archive: store,
	}
	if cfg.Metrics.Enabled {
		env.metrics = metrics.NewRegistry()
	}
	return fn(ctx, env)
}

// runner builds the daily runner over the environment's stores
func (e *environment) runner() (*app.Runner, error) {
	prov, err := provider.New(e.bars, e.cfg.ProviderSettings(), e.log)
	if err != nil {
		return nil, fmt.Errorf("creating signal provider: %w", err)
	}
	notifiers, err := e.notifiers()
	if err != nil {
		return nil, err
	}
	notifyStates, err := e.cfg.NotifyStates()
	if err != nil {
		return nil, err
	}
	return app.NewRunner(e.bars, e.states, prov, app.Options{
		PolicyVersion:   e.cfg.Policy.Version,
		Universe:        e.cfg.Universe.Tickers,
		Archive:         e.archive,
		Metrics:         e.metrics,
		MetricsTextfile: e.cfg.Metrics.Textfile,
		Notifiers:       notifiers,
		NotifyStates:    notifyStates,
		HealthRules:     e.cfg.HealthRules(),
		Logger:          e.log,
	})
}

// notifiers registers the enabled alert channels
func (e *environment) notifiers() (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	nc := e.cfg.Notify

	if nc.Webhook.Enabled {
		n, err := webhook.New(nc.Webhook.URL, nc.Webhook.Headers)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	if nc.Telegram.Enabled {
		n, err := telegram.New(nc.Telegram.BotToken, nc.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	if nc.Email.Enabled {
		n, err := email.New(nc.Email.Host, nc.Email.Port, nc.Email.Username, nc.Email.Password, nc.Email.From, nc.Email.To)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}

	for _, n := range reg.GetAll() {
		e.log.Info("notifier enabled", zap.String("notifier", n.Name()))
	}
	return reg, nil
}

// source returns the configured bar source
func (e *environment) source() (collector.Collector, error) {
	reg := collector.NewRegistry()
	reg.Register(yahoo.New())
	return reg.Get(e.cfg.Fetch.Source)
}

// fetchTickers picks the tickers to download: explicit, then the universe,
// then the tickers of the latest stored trading day.
func (e *environment) fetchTickers(ctx context.Context, explicit []string, asOf time.Time) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if len(e.cfg.Universe.Tickers) > 0 {
		return e.cfg.Universe.Tickers, nil
	}
	days, err := e.bars.TradingDays(ctx, asOf.AddDate(0, 0, -e.cfg.Fetch.Days), asOf)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no universe configured and no stored bars; pass --tickers"))
	}
	return e.bars.Tickers(ctx, days[len(days)-1])
}

// fetch refreshes fetch.days of bars ending at asOf
func (e *environment) fetch(ctx context.Context, src collector.Collector, tickers []string, asOf time.Time) ([]collector.Result, error) {
	from := asOf.AddDate(0, 0, -e.cfg.Fetch.Days)
	return collector.Sync(ctx, src, e.bars, tickers, from, asOf, e.log)
}
