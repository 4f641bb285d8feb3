package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kalletarpila/swingmaster/internal/api/response"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

// TickersHandler serves the state history of one ticker.
type TickersHandler struct {
	store state.Store
}

// NewTickersHandler creates a new tickers handler.
func NewTickersHandler(store state.Store) *TickersHandler {
	return &TickersHandler{store: store}
}

// Days returns the latest days of {ticker}, newest first. A ticker without
// any stored day is not found.
func (h *TickersHandler) Days(w http.ResponseWriter, r *http.Request) {
	ticker, limit, err := tickerQuery(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	days, err := h.store.Days(r.Context(), ticker, limit)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrStorageFailed, err))
		return
	}
	if len(days) == 0 {
		response.Fail(w, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("%s", ticker)))
		return
	}

	views := make([]DayView, len(days))
	for i, d := range days {
		views[i] = dayView(d)
	}
	response.List(w, views)
}

// Current returns the latest stored day of {ticker}.
func (h *TickersHandler) Current(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimSpace(r.PathValue("ticker"))
	if ticker == "" {
		response.Fail(w, core.WrapError(core.ErrBadRequest, fmt.Errorf("ticker is required")))
		return
	}

	days, err := h.store.Days(r.Context(), ticker, 1)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrStorageFailed, err))
		return
	}
	if len(days) == 0 {
		response.Fail(w, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("%s", ticker)))
		return
	}
	response.JSON(w, http.StatusOK, dayView(days[0]))
}

// Transitions returns the latest transitions of {ticker}, newest first.
func (h *TickersHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	ticker, limit, err := tickerQuery(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	trs, err := h.store.Transitions(r.Context(), ticker, limit)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrStorageFailed, err))
		return
	}

	views := make([]TransitionView, len(trs))
	for i, tr := range trs {
		views[i] = transitionView(tr)
	}
	response.List(w, views)
}

func tickerQuery(r *http.Request) (string, int, error) {
	ticker := strings.TrimSpace(r.PathValue("ticker"))
	if ticker == "" {
		return "", 0, core.WrapError(core.ErrBadRequest, fmt.Errorf("ticker is required"))
	}
	limit, err := parseLimit(r)
	if err != nil {
		return "", 0, err
	}
	return ticker, limit, nil
}
