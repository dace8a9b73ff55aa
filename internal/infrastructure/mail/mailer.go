// Package mail renders transactional emails and hands them to a Sender.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/eventix/ticketing/internal/api/metrics"
	"github.com/eventix/ticketing/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateVerification  = "verification.html"
	templatePasswordReset = "password_reset.html"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer implements ports.Mailer.
type Mailer struct {
	sender  Sender
	tmpl    *template.Template
	timeout time.Duration
}

// NewMailer parses the embedded templates. timeout bounds each delivery;
// zero means no bound.
func NewMailer(sender Sender, timeout time.Duration) (*Mailer, error) {
	tmpl, err := template.New("mail").
		Funcs(template.FuncMap{"humanize": humanizeDuration}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Mailer{sender: sender, tmpl: tmpl, timeout: timeout}, nil
}

func (m *Mailer) SendVerification(ctx context.Context, v ports.VerificationMail) error {
	return m.send(ctx, templateVerification, v.To, "Verify your account", v)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, r ports.PasswordResetMail) error {
	return m.send(ctx, templatePasswordReset, r.To, "Reset your password", r)
}

func (m *Mailer) send(ctx context.Context, name, to, subject string, data any) error {
	var body bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := m.sender.Send(ctx, Message{To: to, Subject: subject, HTMLBody: body.String()})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.MailsSentTotal.WithLabelValues(name, result).Inc()
	return err
}

// humanizeDuration renders whole hours or minutes, e.g. "24 hours" or
// "90 minutes".
func humanizeDuration(d time.Duration) string {
	unit, n := "minute", int64(d/time.Minute)
	if d >= time.Hour && d%time.Hour == 0 {
		unit, n = "hour", int64(d/time.Hour)
	}
	if n < 1 {
		n = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", n, unit)
	if n != 1 {
		b.WriteString("s")
	}
	return b.String()
}
