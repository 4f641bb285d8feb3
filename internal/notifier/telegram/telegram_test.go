package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg, err := New("token", "chatid")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestNew_MissingFields(t *testing.T) {
	if _, err := New("", "chat"); err == nil {
		t.Error("expected error for missing bot_token")
	}
	if _, err := New("token", ""); err == nil {
		t.Error("expected error for missing chat_id")
	}
}

func entryAlert() notifier.Alert {
	return notifier.Alert{
		RunID:   "run-1",
		AsOf:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Ticker:  "NOKIA.HE",
		From:    core.StateStabilizing,
		To:      core.StateEntryWindow,
		Reasons: []core.ReasonCode{core.ReasonEntryConditionsMet},
	}
}

func TestTelegram_Send(t *testing.T) {
	var receivedPayload map[string]any
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	tg, _ := New("test-token", "test-chat")
	tg.apiBase = server.URL
	tg.client = server.Client()

	if err := tg.Send(context.Background(), entryAlert()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if path != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path %q", path)
	}
	if receivedPayload["chat_id"] != "test-chat" {
		t.Errorf("expected chat_id test-chat, got %v", receivedPayload["chat_id"])
	}
	text, _ := receivedPayload["text"].(string)
	if !strings.Contains(text, "NOKIA.HE") || !strings.Contains(text, "entry conditions met") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer server.Close()

	tg, _ := New("token", "chat")
	tg.apiBase = server.URL

	err := tg.Send(context.Background(), entryAlert())
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestTelegram_FormatAlert(t *testing.T) {
	tg, _ := New("token", "chat")

	formatted := tg.formatAlert(entryAlert())
	for _, want := range []string{"🟢", "NOKIA.HE", "STABILIZING", "ENTRY_WINDOW", "2024-03-15"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatted message should contain %q: %s", want, formatted)
		}
	}

	down := entryAlert()
	down.From, down.To = core.StateNoTrade, core.StateDowntrendEarly
	if !strings.Contains(tg.formatAlert(down), "📉") {
		t.Error("downtrend alert should have 📉 emoji")
	}
}

func TestTelegram_SendBatch_Empty(t *testing.T) {
	tg, _ := New("token", "chat")

	if err := tg.SendBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not return error: %v", err)
	}
}

func TestTelegram_SendBatch(t *testing.T) {
	var text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		text, _ = payload["text"].(string)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg, _ := New("token", "chat")
	tg.apiBase = server.URL

	a, b := entryAlert(), entryAlert()
	b.Ticker = "KNEBV.HE"
	if err := tg.SendBatch(context.Background(), []notifier.Alert{a, b}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if !strings.Contains(text, "2 state changes") || !strings.Contains(text, "KNEBV.HE") {
		t.Errorf("unexpected batch text %q", text)
	}
}

func TestTelegram_SendText(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg, _ := New("token", "chat")
	tg.apiBase = server.URL

	if err := tg.SendText(context.Background(), "run health", "blocked > 5"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	text, _ := payload["text"].(string)
	if !strings.Contains(text, "*run health*") || !strings.Contains(text, "blocked > 5") {
		t.Errorf("unexpected text %q", text)
	}
}
