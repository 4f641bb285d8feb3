package sqlite

// Dates are stored as YYYY-MM-DD text so they sort lexically.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ohlcv (
		ticker TEXT NOT NULL,
		date   TEXT NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ohlcv_date ON ohlcv(date)`,

	`CREATE TABLE IF NOT EXISTS rc_run (
		run_id         TEXT PRIMARY KEY,
		as_of          TEXT NOT NULL,
		policy_version TEXT NOT NULL,
		started_at     TEXT NOT NULL,
		finished_at    TEXT,
		tickers        INTEGER NOT NULL DEFAULT 0,
		transitions    INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS rc_state_daily (
		ticker           TEXT NOT NULL,
		date             TEXT NOT NULL,
		state            TEXT NOT NULL,
		reasons_json     TEXT NOT NULL,
		confidence       INTEGER,
		age              INTEGER NOT NULL,
		status_json      TEXT,
		signal_keys_json TEXT,
		run_id           TEXT NOT NULL,
		PRIMARY KEY (ticker, date)
	)`,

	`CREATE TABLE IF NOT EXISTS rc_transition (
		ticker       TEXT NOT NULL,
		date         TEXT NOT NULL,
		from_state   TEXT NOT NULL,
		to_state     TEXT NOT NULL,
		reasons_json TEXT NOT NULL,
		run_id       TEXT NOT NULL,
		PRIMARY KEY (ticker, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rc_transition_run ON rc_transition(run_id)`,
}
