package state

import (
	"context"
	"time"

	"github.com/kalletarpila/swingmaster/internal/policy"
)

// contextHistory binds a store and a context to the policy history port
type contextHistory struct {
	ctx   context.Context
	store Store
}

// History returns a policy.HistoryPort reading from store under ctx
func History(ctx context.Context, store Store) policy.HistoryPort {
	return &contextHistory{ctx: ctx, store: store}
}

func (h *contextHistory) RecentDays(ticker string, asOf time.Time, limit int) ([]policy.HistoryDay, error) {
	return h.store.RecentDays(h.ctx, ticker, asOf, limit)
}
