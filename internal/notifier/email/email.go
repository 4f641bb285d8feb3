// Package email implements an SMTP-based email notifier
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/notifier"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) (*Email, error) {
	if host == "" || from == "" || len(to) == 0 {
		return nil, fmt.Errorf("email: host, from and to are required")
	}
	if port == 0 {
		port = 587
	}
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		sendMail: smtp.SendMail,
	}, nil
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, alert notifier.Alert) error {
	subject := fmt.Sprintf("swingmaster: %s %s -> %s", alert.Ticker, alert.From, alert.To)
	return e.sendEmail(ctx, subject, e.formatAlert(alert))
}

func (e *Email) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	subject := fmt.Sprintf("swingmaster %s: %d state changes", alerts[0].AsOf.Format(core.DateLayout), len(alerts))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run %s on %s\n\n", alerts[0].RunID, alerts[0].AsOf.Format(core.DateLayout)))
	for _, a := range alerts {
		sb.WriteString(e.formatAlert(a))
		sb.WriteString("\n")
	}

	return e.sendEmail(ctx, subject, sb.String())
}

func (e *Email) SendText(ctx context.Context, subject, text string) error {
	if subject == "" {
		subject = "swingmaster notice"
	}
	return e.sendEmail(ctx, subject, text)
}

func (e *Email) formatAlert(a notifier.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s -> %s\n", a.Ticker, a.From, a.To))
	for _, r := range a.Reasons {
		sb.WriteString(fmt.Sprintf("  - %s (%s)\n", r.Meta().Message, r))
	}
	return sb.String()
}

func (e *Email) sendEmail(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		body,
	)

	if err := e.sendMail(addr, auth, e.from, e.to, []byte(msg)); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}
