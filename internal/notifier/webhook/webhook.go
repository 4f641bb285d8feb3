// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, alert notifier.Alert) error {
	return w.post(ctx, w.alertToPayload(alert))
}

func (w *Webhook) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	payloads := make([]map[string]any, len(alerts))
	for i, a := range alerts {
		payloads[i] = w.alertToPayload(a)
	}

	batchPayload := map[string]any{
		"type":        "batch",
		"run_id":      alerts[0].RunID,
		"as_of":       alerts[0].AsOf.Format(core.DateLayout),
		"count":       len(alerts),
		"transitions": payloads,
	}

	return w.post(ctx, batchPayload)
}

func (w *Webhook) SendText(ctx context.Context, subject, text string) error {
	return w.post(ctx, map[string]any{
		"type":    "text",
		"subject": subject,
		"text":    text,
	})
}

func (w *Webhook) alertToPayload(a notifier.Alert) map[string]any {
	return map[string]any{
		"type":    "transition",
		"run_id":  a.RunID,
		"as_of":   a.AsOf.Format(core.DateLayout),
		"ticker":  a.Ticker,
		"from":    a.From,
		"to":      a.To,
		"reasons": a.Reasons,
	}
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
