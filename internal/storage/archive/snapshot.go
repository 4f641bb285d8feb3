package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Snapshot is the archived summary of one committed run
type Snapshot struct {
	RunID         string               `json:"run_id"`
	AsOf          string               `json:"as_of"`
	PolicyVersion string               `json:"policy_version"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	Tickers       int                  `json:"tickers"`
	StateCounts   map[core.State]int   `json:"state_counts"`
	Transitions   []SnapshotTransition `json:"transitions"`
}

// SnapshotTransition is one state change inside a snapshot
type SnapshotTransition struct {
	Ticker  string            `json:"ticker"`
	From    core.State        `json:"from"`
	To      core.State        `json:"to"`
	Reasons []core.ReasonCode `json:"reasons"`
}

// SnapshotPath returns runs/<date>/<run_id>.json
func SnapshotPath(asOf time.Time, runID string) string {
	return path.Join("runs", asOf.Format(core.DateLayout), runID+".json")
}

// SaveSnapshot writes snap and returns its path
func SaveSnapshot(ctx context.Context, store Storage, asOf time.Time, snap Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}
	p := SnapshotPath(asOf, snap.RunID)
	if err := store.Write(ctx, p, data); err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing %s: %w", p, err))
	}
	return p, nil
}

// LoadSnapshot reads the snapshot at p
func LoadSnapshot(ctx context.Context, store Storage, p string) (Snapshot, error) {
	data, err := store.Read(ctx, p)
	if err != nil {
		return Snapshot{}, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("reading %s: %w", p, err))
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("decoding %s: %w", p, err))
	}
	return snap, nil
}

// ListSnapshots returns snapshot paths for a day, or all days when asOf is zero
func ListSnapshots(ctx context.Context, store Storage, asOf time.Time) ([]string, error) {
	prefix := "runs"
	if !asOf.IsZero() {
		prefix = path.Join(prefix, asOf.Format(core.DateLayout))
	}
	paths, err := store.List(ctx, prefix)
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return paths, nil
}
