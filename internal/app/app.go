// Package app wires stores, the signal provider and a policy into daily runs.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalletarpila/swingmaster/internal/alert"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/evaluator"
	"github.com/kalletarpila/swingmaster/internal/logger"
	"github.com/kalletarpila/swingmaster/internal/metrics"
	"github.com/kalletarpila/swingmaster/internal/notifier"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/signal"
	"github.com/kalletarpila/swingmaster/internal/storage/archive"
	"github.com/kalletarpila/swingmaster/internal/storage/market"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

// SignalSource produces the signal set of a ticker-day
type SignalSource interface {
	Signals(ctx context.Context, ticker string, date time.Time) (signal.Set, error)
}

// Options configures a Runner. Zero values disable the optional parts.
type Options struct {
	PolicyVersion   string
	Universe        []string
	Archive         archive.Storage
	Metrics         *metrics.Registry
	MetricsTextfile string
	Notifiers       *notifier.Registry
	NotifyStates    []core.State
	HealthRules     *alert.Evaluator
	Logger          *zap.Logger
}

// Summary describes one committed run
type Summary struct {
	RunID        string
	AsOf         time.Time
	Tickers      int
	Transitions  []state.Transition
	StateCounts  map[core.State]int
	Blocked      int
	Insufficient int
	ArchivePath  string
	Notified     int
	HealthAlerts []alert.Firing
}

// Runner evaluates a ticker universe one trading day at a time
type Runner struct {
	bars      market.Store
	states    state.Store
	signals   SignalSource
	version   string
	universe  []string
	archive   archive.Storage
	metrics   *metrics.Registry
	textfile  string
	notifiers *notifier.Registry
	filter    notifier.Filter
	health    *alert.Evaluator
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewRunner creates a Runner. The policy version is checked up front.
func NewRunner(bars market.Store, states state.Store, signals SignalSource, opts Options) (*Runner, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PolicyVersion == "" {
		opts.PolicyVersion = policy.VersionV3
	}
	if _, err := policy.New(opts.PolicyVersion, nil, nil); err != nil {
		return nil, err
	}

	return &Runner{
		bars:      bars,
		states:    states,
		signals:   signals,
		version:   opts.PolicyVersion,
		universe:  normalizeTickers(opts.Universe),
		archive:   opts.Archive,
		metrics:   opts.Metrics,
		textfile:  opts.MetricsTextfile,
		notifiers: opts.Notifiers,
		filter:    notifier.NewFilter(opts.NotifyStates...),
		health:    opts.HealthRules,
		logger:    opts.Logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// PolicyVersion returns the configured policy version
func (r *Runner) PolicyVersion() string {
	return r.version
}

// RunDaily evaluates every ticker for date and commits the result as one run.
// Tickers default to the configured universe, then to every ticker with a
// bar on date. Nothing is written when any ticker fails to load.
func (r *Runner) RunDaily(ctx context.Context, date time.Time, tickers []string) (*Summary, error) {
	day := core.TruncateDay(date)

	tickers, err := r.resolveTickers(ctx, day, tickers)
	if err != nil {
		return nil, err
	}

	runID := r.newID()
	ctx = core.WithRunID(ctx, runID)
	log := logger.ForRun(r.logger, runID, day)
	started := r.now()

	p, err := policy.New(r.version, state.History(ctx, r.states), log)
	if err != nil {
		return nil, err
	}

	log.Info("run started",
		zap.String("policy", r.version),
		zap.Int("tickers", len(tickers)),
	)

	summary := &Summary{
		RunID:       runID,
		AsOf:        day,
		Tickers:     len(tickers),
		StateCounts: make(map[core.State]int),
	}
	batch := state.Batch{
		Days: make([]state.Day, 0, len(tickers)),
	}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			r.recordFailure(started)
			return nil, err
		}

		res, keys, err := r.evaluate(ctx, p, ticker, day)
		if err != nil {
			log.Error("evaluation failed", zap.String("ticker", ticker), zap.Error(err))
			r.recordFailure(started)
			return nil, err
		}

		batch.Days = append(batch.Days, state.Day{
			Ticker:     ticker,
			Date:       day,
			State:      res.FinalState,
			Reasons:    res.Reasons,
			Attrs:      res.Attrs,
			SignalKeys: keys,
			RunID:      runID,
		})
		if res.Transition != nil {
			batch.Transitions = append(batch.Transitions, state.Transition{
				Ticker:  ticker,
				Date:    day,
				From:    res.Transition.From,
				To:      res.Transition.To,
				Reasons: res.Transition.Reasons,
				RunID:   runID,
			})
		}

		insufficient := core.ContainsReason(res.Reasons, core.ReasonDataInsufficient)
		summary.StateCounts[res.FinalState]++
		if res.Blocked {
			summary.Blocked++
		}
		if insufficient {
			summary.Insufficient++
		}
		r.recordEvaluation(res, insufficient)

		log.Debug("ticker evaluated",
			zap.String("ticker", ticker),
			zap.String("prev", res.PrevState.String()),
			zap.String("proposed", res.Proposed.String()),
			zap.String("state", res.FinalState.String()),
			zap.Bool("blocked", res.Blocked),
			zap.Strings("reasons", reasonStrings(res.Reasons)),
		)
	}

	finished := r.now()
	batch.Run = state.Run{
		ID:            runID,
		AsOf:          day,
		PolicyVersion: r.version,
		StartedAt:     started,
		FinishedAt:    finished,
		Tickers:       len(tickers),
		Transitions:   len(batch.Transitions),
		Status:        state.RunCompleted,
	}

	if err := r.states.CommitRun(ctx, batch); err != nil {
		r.recordFailure(started)
		return nil, fmt.Errorf("committing run %s: %w", runID, err)
	}
	summary.Transitions = batch.Transitions

	if r.metrics != nil {
		r.metrics.RecordRun(r.version, state.RunCompleted, len(tickers),
			finished.Sub(started).Seconds(), float64(finished.Unix()))
	}

	summary.ArchivePath = r.archiveRun(ctx, log, batch.Run, summary)
	summary.Notified = r.notify(ctx, log, summary)
	summary.HealthAlerts = r.checkHealth(ctx, log, summary)
	r.writeTextfile(log)

	log.Info("run committed",
		zap.Int("tickers", len(tickers)),
		zap.Int("transitions", len(batch.Transitions)),
		zap.Int("blocked", summary.Blocked),
		zap.Int("insufficient", summary.Insufficient),
		zap.Duration("duration", finished.Sub(started)),
	)

	return summary, nil
}

// RunRange runs every trading day in [from, to] in order. It stops at the
// first failed day and returns the summaries committed so far.
func (r *Runner) RunRange(ctx context.Context, from, to time.Time, tickers []string) ([]*Summary, error) {
	from, to = core.TruncateDay(from), core.TruncateDay(to)
	if to.Before(from) {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("range end %s is before start %s",
			to.Format(core.DateLayout), from.Format(core.DateLayout)))
	}

	days, err := r.bars.TradingDays(ctx, from, to)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	if len(days) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no trading days between %s and %s",
			from.Format(core.DateLayout), to.Format(core.DateLayout)))
	}

	r.logger.Info("range started",
		zap.String("from", from.Format(core.DateLayout)),
		zap.String("to", to.Format(core.DateLayout)),
		zap.Int("days", len(days)),
	)

	summaries := make([]*Summary, 0, len(days))
	for _, d := range days {
		s, err := r.RunDaily(ctx, d, tickers)
		if err != nil {
			return summaries, fmt.Errorf("run for %s: %w", d.Format(core.DateLayout), err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (r *Runner) evaluate(ctx context.Context, p policy.Policy, ticker string, day time.Time) (evaluator.Result, []signal.Key, error) {
	prevState, prevAttrs, err := r.states.PrevState(ctx, ticker, day)
	if err != nil {
		return evaluator.Result{}, nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("previous state of %s: %w", ticker, err))
	}

	signals, err := r.signals.Signals(ctx, ticker, day)
	if err != nil {
		return evaluator.Result{}, nil, fmt.Errorf("signals of %s: %w", ticker, err)
	}

	res := evaluator.EvaluateStep(prevState, prevAttrs, signals, p, ticker, day)
	return res, signals.Keys(), nil
}

func (r *Runner) resolveTickers(ctx context.Context, day time.Time, tickers []string) ([]string, error) {
	if len(tickers) > 0 {
		return normalizeTickers(tickers), nil
	}
	if len(r.universe) > 0 {
		return r.universe, nil
	}

	found, err := r.bars.Tickers(ctx, day)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	if len(found) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars on %s", day.Format(core.DateLayout)))
	}
	return found, nil
}

func (r *Runner) archiveRun(ctx context.Context, log *zap.Logger, run state.Run, s *Summary) string {
	if r.archive == nil {
		return ""
	}

	snap := archive.Snapshot{
		RunID:         run.ID,
		AsOf:          run.AsOf.Format(core.DateLayout),
		PolicyVersion: run.PolicyVersion,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Tickers:       run.Tickers,
		StateCounts:   s.StateCounts,
		Transitions:   make([]archive.SnapshotTransition, 0, len(s.Transitions)),
	}
	for _, tr := range s.Transitions {
		snap.Transitions = append(snap.Transitions, archive.SnapshotTransition{
			Ticker:  tr.Ticker,
			From:    tr.From,
			To:      tr.To,
			Reasons: tr.Reasons,
		})
	}

	// the run is already committed; a failed snapshot only gets logged
	p, err := archive.SaveSnapshot(ctx, r.archive, run.AsOf, snap)
	if err != nil {
		log.Warn("archiving run failed", zap.Error(err))
		return ""
	}
	return p
}

// notify sends the watched transitions of a committed run and returns how
// many alerts went out. Delivery failures are logged only.
func (r *Runner) notify(ctx context.Context, log *zap.Logger, s *Summary) int {
	if r.notifiers == nil || r.notifiers.Len() == 0 {
		return 0
	}

	alerts := make([]notifier.Alert, 0, len(s.Transitions))
	for _, tr := range s.Transitions {
		alerts = append(alerts, notifier.Alert{
			RunID:   s.RunID,
			AsOf:    s.AsOf,
			Ticker:  tr.Ticker,
			From:    tr.From,
			To:      tr.To,
			Reasons: tr.Reasons,
		})
	}
	alerts = r.filter.Select(alerts)
	if len(alerts) == 0 {
		return 0
	}

	for name, err := range r.notifiers.NotifyAllBatch(ctx, alerts) {
		log.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
	}
	return len(alerts)
}

// checkHealth evaluates the run health rules against the committed run and
// forwards firings to the notifiers.
func (r *Runner) checkHealth(ctx context.Context, log *zap.Logger, s *Summary) []alert.Firing {
	if r.health == nil || r.health.Len() == 0 {
		return nil
	}

	fired := r.health.Observe(alert.RunMetrics(s.Tickers, len(s.Transitions), s.Blocked, s.Insufficient, s.StateCounts))
	if len(fired) == 0 {
		return nil
	}

	lines := make([]string, len(fired))
	for i, f := range fired {
		log.Warn("run health alert",
			zap.String("rule", f.Rule),
			zap.String("severity", f.Severity),
			zap.String("message", f.Message),
		)
		if r.metrics != nil {
			r.metrics.RecordHealthAlert(f.Rule, f.Severity)
		}
		lines[i] = f.Message
	}

	if r.notifiers != nil && r.notifiers.Len() > 0 {
		subject := fmt.Sprintf("swingmaster run health %s", s.AsOf.Format(core.DateLayout))
		for name, err := range r.notifiers.NotifyAllText(ctx, subject, strings.Join(lines, "\n")) {
			log.Warn("health notification failed", zap.String("notifier", name), zap.Error(err))
		}
	}
	return fired
}

func (r *Runner) recordEvaluation(res evaluator.Result, insufficient bool) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordEvaluation(res.FinalState, insufficient)
	if res.Transition != nil {
		r.metrics.RecordTransition(res.Transition.From, res.Transition.To)
	}
	if res.Blocked {
		r.metrics.RecordGuardrailBlock(res.PrevState, res.Proposed)
	}
}

func (r *Runner) recordFailure(started time.Time) {
	if r.metrics == nil {
		return
	}
	finished := r.now()
	r.metrics.RecordRun(r.version, state.RunFailed, 0, finished.Sub(started).Seconds(), float64(finished.Unix()))
}

func (r *Runner) writeTextfile(log *zap.Logger) {
	if r.metrics == nil || r.textfile == "" {
		return
	}
	if err := r.metrics.WriteTextfile(r.textfile); err != nil {
		log.Warn("writing metrics textfile failed", zap.String("path", r.textfile), zap.Error(err))
	}
}

// normalizeTickers trims, drops blanks and duplicates, and sorts.
func normalizeTickers(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func reasonStrings(reasons []core.ReasonCode) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}
	return out
}
