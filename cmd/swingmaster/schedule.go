package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalletarpila/swingmaster/internal/app"
	"github.com/kalletarpila/swingmaster/internal/collector"
	"github.com/kalletarpila/swingmaster/internal/metrics"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily evaluation on the configured cron schedule",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withEnvironment(ctx, func(ctx context.Context, env *environment) error {
		r, err := env.runner()
		if err != nil {
			return err
		}
		loc, err := env.cfg.Schedule.Location()
		if err != nil {
			return err
		}
		var daily app.DailyRunner = r
		if env.cfg.Fetch.BeforeRun {
			src, err := env.source()
			if err != nil {
				return err
			}
			daily = &fetchingRunner{env: env, src: src, next: r}
		}
		sched, err := app.NewScheduler(env.cfg.Schedule.Cron, loc, daily, env.log)
		if err != nil {
			return err
		}

		env.log.Info("starting scheduler",
			zap.String("cron", env.cfg.Schedule.Cron),
			zap.String("policy", r.PolicyVersion()),
			zap.Bool("fetch_before_run", env.cfg.Fetch.BeforeRun),
		)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sched.Start(ctx) })
		if env.metrics != nil && env.cfg.Metrics.Addr != "" {
			srv := metrics.NewServer(env.cfg.Metrics.Addr, env.metrics, env.log)
			g.Go(func() error { return srv.Start(ctx) })
		}
		if env.cfg.API.Enabled {
			srv := env.apiServer()
			g.Go(func() error { return srv.Start(ctx) })
		}
		return g.Wait()
	})
}

// fetchingRunner refreshes bars before each scheduled run. A failed
// download is logged and the run proceeds on the stored bars.
type fetchingRunner struct {
	env  *environment
	src  collector.Collector
	next app.DailyRunner
}

func (f *fetchingRunner) RunDaily(ctx context.Context, date time.Time, tickers []string) (*app.Summary, error) {
	list, err := f.env.fetchTickers(ctx, tickers, date)
	if err == nil {
		_, err = f.env.fetch(ctx, f.src, list, date)
	}
	if err != nil {
		f.env.log.Warn("bar refresh before run failed", zap.Error(err))
	}
	return f.next.RunDaily(ctx, date, tickers)
}
