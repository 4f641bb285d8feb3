package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"go.uber.org/zap"
)

const timestampLayout = time.RFC3339

// SQLiteStore persists states in rc_state_daily, rc_transition and rc_run
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a store on an opened database
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, logger: logger}
}

const dayColumns = `ticker, date, state, reasons_json, confidence, age, status_json, signal_keys_json, run_id`

func (s *SQLiteStore) PrevState(ctx context.Context, ticker string, day time.Time) (core.State, policy.Attrs, error) {
	days, err := s.queryDays(ctx, `
		SELECT `+dayColumns+` FROM rc_state_daily
		WHERE ticker = ? AND date < ?
		ORDER BY date DESC LIMIT 1`,
		ticker, day.Format(core.DateLayout))
	if err != nil {
		return core.StateNoTrade, policy.Attrs{}, err
	}
	if len(days) == 0 {
		return core.StateNoTrade, policy.Attrs{}, nil
	}
	return days[0].State, days[0].Attrs, nil
}

func (s *SQLiteStore) RecentDays(ctx context.Context, ticker string, asOf time.Time, limit int) ([]policy.HistoryDay, error) {
	days, err := s.queryDays(ctx, `
		SELECT `+dayColumns+` FROM rc_state_daily
		WHERE ticker = ? AND date < ?
		ORDER BY date DESC LIMIT ?`,
		ticker, asOf.Format(core.DateLayout), limit)
	if err != nil {
		return nil, err
	}
	out := make([]policy.HistoryDay, len(days))
	for i, d := range days {
		out[i] = d.HistoryDay()
	}
	return out, nil
}

func (s *SQLiteStore) Days(ctx context.Context, ticker string, limit int) ([]Day, error) {
	return s.queryDays(ctx, `
		SELECT `+dayColumns+` FROM rc_state_daily
		WHERE ticker = ?
		ORDER BY date DESC LIMIT ?`,
		ticker, limit)
}

func (s *SQLiteStore) CommitRun(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, batch.Run); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	for _, d := range batch.Days {
		if err := upsertDay(ctx, tx, d); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("%s %s: %w", d.Ticker, d.Date.Format(core.DateLayout), err))
		}
	}
	for _, tr := range batch.Transitions {
		if err := insertTransition(ctx, tx, tr); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("%s %s: %w", tr.Ticker, tr.Date.Format(core.DateLayout), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, r Run) error {
	var finished sql.NullString
	if !r.FinishedAt.IsZero() {
		finished = sql.NullString{String: r.FinishedAt.UTC().Format(timestampLayout), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO rc_run
			(run_id, as_of, policy_version, started_at, finished_at, tickers, transitions, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AsOf.Format(core.DateLayout), r.PolicyVersion,
		r.StartedAt.UTC().Format(timestampLayout), finished,
		r.Tickers, r.Transitions, r.Status)
	return err
}

func upsertDay(ctx context.Context, tx *sql.Tx, d Day) error {
	reasons, err := encodeReasons(d.Reasons)
	if err != nil {
		return err
	}
	status, err := encodeStatus(d.Attrs.Status)
	if err != nil {
		return err
	}
	keys, err := encodeKeys(d.SignalKeys)
	if err != nil {
		return err
	}
	day := d.Date.Format(core.DateLayout)

	// a rerun may no longer produce the transition an earlier run wrote
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rc_transition WHERE ticker = ? AND date = ?`, d.Ticker, day); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rc_state_daily (`+dayColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			state = excluded.state,
			reasons_json = excluded.reasons_json,
			confidence = excluded.confidence,
			age = excluded.age,
			status_json = excluded.status_json,
			signal_keys_json = excluded.signal_keys_json,
			run_id = excluded.run_id`,
		d.Ticker, day, string(d.State), reasons, nullInt(d.Attrs.Confidence), d.Attrs.Age, status, keys, d.RunID)
	return err
}

func insertTransition(ctx context.Context, tx *sql.Tx, tr Transition) error {
	reasons, err := encodeReasons(tr.Reasons)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO rc_transition (ticker, date, from_state, to_state, reasons_json, run_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tr.Ticker, tr.Date.Format(core.DateLayout), string(tr.From), string(tr.To), reasons, tr.RunID)
	return err
}

func (s *SQLiteStore) Transitions(ctx context.Context, ticker string, limit int) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, date, from_state, to_state, reasons_json, run_id
		FROM rc_transition
		WHERE ticker = ?
		ORDER BY date DESC LIMIT ?`,
		ticker, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			tr                     Transition
			day, from, to, reasons string
		)
		if err := rows.Scan(&tr.Ticker, &day, &from, &to, &reasons, &tr.RunID); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		if tr.Date, err = core.ParseDate(day); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		tr.From, tr.To = core.State(from), core.State(to)
		if tr.Reasons, err = decodeReasons(reasons); err != nil {
			s.logger.Warn("malformed transition reasons",
				zap.String("ticker", tr.Ticker), zap.String("date", day), zap.Error(err))
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return out, nil
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, as_of, policy_version, started_at, finished_at, tickers, transitions, status
		FROM rc_run
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r             Run
			asOf, started string
			finished      sql.NullString
		)
		if err := rows.Scan(&r.ID, &asOf, &r.PolicyVersion, &started, &finished, &r.Tickers, &r.Transitions, &r.Status); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		if r.AsOf, err = core.ParseDate(asOf); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		r.StartedAt, _ = time.Parse(timestampLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timestampLayout, finished.String)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return out, nil
}

// queryDays scans day rows. Malformed JSON columns degrade to nil with a
// warning so one bad row never blocks a decision.
func (s *SQLiteStore) queryDays(ctx context.Context, query string, args ...any) ([]Day, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var (
			d                Day
			day, st, reasons string
			confidence       sql.NullInt64
			status, keys     sql.NullString
		)
		if err := rows.Scan(&d.Ticker, &day, &st, &reasons, &confidence, &d.Attrs.Age, &status, &keys, &d.RunID); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		if d.Date, err = core.ParseDate(day); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		if d.State, err = core.ParseState(st); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		d.Attrs.Confidence = intPtr(confidence)

		warn := func(field string, err error) {
			s.logger.Warn("malformed state column",
				zap.String("ticker", d.Ticker),
				zap.String("date", day),
				zap.String("column", field),
				zap.Error(err),
			)
		}
		if d.Reasons, err = decodeReasons(reasons); err != nil {
			warn("reasons_json", err)
			d.Reasons = nil
		}
		if d.Attrs.Status, err = decodeStatus(status); err != nil {
			warn("status_json", err)
			d.Attrs.Status = nil
		}
		if d.SignalKeys, err = decodeKeys(keys); err != nil {
			warn("signal_keys_json", err)
			d.SignalKeys = nil
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return out, nil
}
