package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Error("expected error for missing url")
	}
}

func testAlert() notifier.Alert {
	return notifier.Alert{
		RunID:   "run-1",
		AsOf:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Ticker:  "NOKIA.HE",
		From:    core.StateStabilizing,
		To:      core.StateEntryWindow,
		Reasons: []core.ReasonCode{core.ReasonEntryConditionsMet},
	}
}

func TestWebhook_Send(t *testing.T) {
	var received map[string]any
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wh, err := New(server.URL, map[string]string{"Authorization": "Bearer token"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := wh.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if auth != "Bearer token" {
		t.Errorf("expected custom header, got %q", auth)
	}
	if received["ticker"] != "NOKIA.HE" || received["to"] != "ENTRY_WINDOW" || received["as_of"] != "2024-03-15" {
		t.Errorf("unexpected payload %v", received)
	}
}

func TestWebhook_SendBatch(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wh, _ := New(server.URL, nil)
	a, b := testAlert(), testAlert()
	b.Ticker = "KNEBV.HE"

	if err := wh.SendBatch(context.Background(), []notifier.Alert{a, b}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if received["type"] != "batch" || received["count"] != float64(2) || received["run_id"] != "run-1" {
		t.Errorf("unexpected batch payload %v", received)
	}
	transitions, ok := received["transitions"].([]any)
	if !ok || len(transitions) != 2 {
		t.Errorf("expected 2 transitions, got %v", received["transitions"])
	}
}

func TestWebhook_SendBatch_Empty(t *testing.T) {
	wh, _ := New("http://127.0.0.1:1", nil)
	if err := wh.SendBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not return error: %v", err)
	}
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	wh, _ := New(server.URL, nil)
	if err := wh.Send(context.Background(), testAlert()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestWebhook_SendText(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	wh, _ := New(server.URL, nil)
	if err := wh.SendText(context.Background(), "run health", "blocked > 5"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if received["type"] != "text" || received["subject"] != "run health" || received["text"] != "blocked > 5" {
		t.Errorf("unexpected payload %v", received)
	}
}
