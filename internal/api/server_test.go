package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kalletarpila/swingmaster/internal/api/response"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/metrics"
	"github.com/kalletarpila/swingmaster/internal/storage/state"
)

func seededStore(t *testing.T) *state.MemoryStore {
	t.Helper()
	store := state.NewMemoryStore()
	d1 := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for i, d := range []time.Time{d1, d2} {
		st := core.StateNoTrade
		if i == 1 {
			st = core.StateDowntrendEarly
		}
		batch := state.Batch{
			Run: state.Run{
				ID: d.Format(core.DateLayout), AsOf: d, PolicyVersion: "v3",
				StartedAt: d, FinishedAt: d.Add(2 * time.Second), Tickers: 1, Status: state.RunCompleted,
			},
			Days: []state.Day{{Ticker: "NOKIA.HE", Date: d, State: st, Reasons: []core.ReasonCode{}, RunID: d.Format(core.DateLayout)}},
		}
		if i == 1 {
			batch.Transitions = []state.Transition{{
				Ticker: "NOKIA.HE", Date: d, From: core.StateNoTrade, To: core.StateDowntrendEarly,
				Reasons: []core.ReasonCode{core.ReasonTrendStarted}, RunID: batch.Run.ID,
			}}
			batch.Run.Transitions = 1
		}
		require.NoError(t, store.CommitRun(context.Background(), batch))
	}
	return store
}

func get(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) ([]any, int) {
	t.Helper()
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items, ok := resp.Data.([]any)
	require.True(t, ok, "expected array data, got %T", resp.Data)
	require.NotNil(t, resp.Meta.Count)
	return items, *resp.Meta.Count
}

func TestServer_Health(t *testing.T) {
	srv := NewServer(Config{Addr: ":0", APIKey: "k"}, state.NewMemoryStore(), nil, zap.NewNop())

	w := get(t, srv.Handler(), "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_APIAuth(t *testing.T) {
	srv := NewServer(Config{Addr: ":0", APIKey: "test-key"}, seededStore(t), nil, zap.NewNop())

	assert.Equal(t, http.StatusUnauthorized, get(t, srv.Handler(), "/api/v1/runs", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.Handler(), "/api/v1/runs", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/api/v1/runs", "test-key").Code)
}

func TestServer_Runs(t *testing.T) {
	reg := metrics.NewRegistry()
	srv := NewServer(Config{Addr: ":0"}, seededStore(t), reg, zap.NewNop())

	w := get(t, srv.Handler(), "/api/v1/runs?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	items, count := decodeList(t, w)
	assert.Equal(t, 1, count)
	run := items[0].(map[string]any)
	assert.Equal(t, "2024-03-15", run["as_of"])
	assert.Equal(t, float64(2000), run["duration_ms"])

	assert.Equal(t, http.StatusBadRequest, get(t, srv.Handler(), "/api/v1/runs?limit=abc", "").Code)

	get(t, srv.Handler(), "/api/v1/tickers/NOKIA.HE", "")
	get(t, srv.Handler(), "/api/v1/tickers/AAPL", "")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	paths := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					paths[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, float64(2), paths["/api/v1/runs"])
	assert.Equal(t, float64(2), paths["/api/v1/tickers/{ticker}"])
	assert.NotContains(t, paths, "/api/v1/tickers/NOKIA.HE")
}

func TestServer_TickerDaysAndCurrent(t *testing.T) {
	srv := NewServer(Config{Addr: ":0"}, seededStore(t), nil, zap.NewNop())

	w := get(t, srv.Handler(), "/api/v1/tickers/NOKIA.HE/days", "")
	require.Equal(t, http.StatusOK, w.Code)
	items, count := decodeList(t, w)
	assert.Equal(t, 2, count)
	assert.Equal(t, "2024-03-15", items[0].(map[string]any)["date"])

	w = get(t, srv.Handler(), "/api/v1/tickers/NOKIA.HE", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DOWNTREND_EARLY", resp.Data.(map[string]any)["state"])

	w = get(t, srv.Handler(), "/api/v1/tickers/MISSING/days", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TICKER_NOT_FOUND")
}

func TestServer_TickerTransitions(t *testing.T) {
	srv := NewServer(Config{Addr: ":0"}, seededStore(t), nil, zap.NewNop())

	w := get(t, srv.Handler(), "/api/v1/tickers/NOKIA.HE/transitions", "")
	require.Equal(t, http.StatusOK, w.Code)
	items, _ := decodeList(t, w)
	require.Len(t, items, 1)
	tr := items[0].(map[string]any)
	assert.Equal(t, "NO_TRADE", tr["from"])
	assert.Equal(t, "DOWNTREND_EARLY", tr["to"])
	assert.Equal(t, []any{"TREND_STARTED"}, tr["reasons"])

	// unknown tickers have no transitions rather than an error
	w = get(t, srv.Handler(), "/api/v1/tickers/MISSING/transitions", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(Config{Addr: ":0"}, seededStore(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
