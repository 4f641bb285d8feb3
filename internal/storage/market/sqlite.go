package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// SQLiteStore reads and writes the ohlcv table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an opened database
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Bars(ctx context.Context, ticker string, until time.Time, limit int) ([]core.OHLCV, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM ohlcv
		WHERE ticker = ? AND date <= ?
		ORDER BY date DESC
		LIMIT ?`,
		ticker, until.Format(core.DateLayout), limit)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("querying bars: %w", err))
	}
	defer rows.Close()

	var out []core.OHLCV
	for rows.Next() {
		var (
			day string
			b   = core.OHLCV{Symbol: ticker}
		)
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("scanning bar: %w", err))
		}
		if b.Time, err = core.ParseDate(day); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return out, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, bars []core.OHLCV) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ohlcv (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Symbol, b.Time.Format(core.DateLayout), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("upserting %s %s: %w", b.Symbol, b.Time.Format(core.DateLayout), err))
		}
	}
	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func (s *SQLiteStore) Tickers(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker FROM ohlcv WHERE date = ? ORDER BY ticker`, day.Format(core.DateLayout))
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM ohlcv WHERE date >= ? AND date <= ? ORDER BY date`,
		from.Format(core.DateLayout), to.Format(core.DateLayout))
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		d, err := core.ParseDate(day)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
