package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, alert notifier.Alert) error {
	return t.sendMessage(ctx, t.formatAlert(alert))
}

func (t *Telegram) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d state changes* %s\n\n", len(alerts), alerts[0].AsOf.Format(core.DateLayout)))

	for i, a := range alerts {
		sb.WriteString(t.formatAlert(a))
		if i < len(alerts)-1 {
			sb.WriteString("\n\n")
		}
	}

	return t.sendMessage(ctx, sb.String())
}

func (t *Telegram) SendText(ctx context.Context, subject, text string) error {
	if subject == "" {
		return t.sendMessage(ctx, text)
	}
	return t.sendMessage(ctx, fmt.Sprintf("⚠️ *%s*\n%s", subject, text))
}

func (t *Telegram) formatAlert(a notifier.Alert) string {
	var sb strings.Builder

	emoji := "🔄"
	switch a.To {
	case core.StateEntryWindow:
		emoji = "🟢"
	case core.StateDowntrendEarly, core.StateDowntrendLate:
		emoji = "📉"
	case core.StateStabilizing:
		emoji = "⏸️"
	case core.StatePass, core.StateNoTrade:
		emoji = "⚪"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* %s → %s\n", emoji, a.Ticker, a.From, a.To))

	reasons := make([]string, len(a.Reasons))
	for i, r := range a.Reasons {
		reasons[i] = r.Meta().Message
	}
	if len(reasons) > 0 {
		sb.WriteString(fmt.Sprintf("💡 %s\n", strings.Join(reasons, "; ")))
	}

	sb.WriteString(fmt.Sprintf("⏰ %s", a.AsOf.Format(core.DateLayout)))

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
