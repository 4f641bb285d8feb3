package api

import (
	"net/http"

	"github.com/kalletarpila/swingmaster/internal/api/response"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

// RunsHandler serves the run log.
type RunsHandler struct {
	store state.Store
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store state.Store) *RunsHandler {
	return &RunsHandler{store: store}
}

// List returns the latest runs, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	runs, err := h.store.Runs(r.Context(), limit)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrStorageFailed, err))
		return
	}

	views := make([]RunView, len(runs))
	for i, run := range runs {
		views[i] = runView(run)
	}
	response.List(w, views)
}
