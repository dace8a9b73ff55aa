package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SMTPSender delivers mail over SMTP with STARTTLS when offered.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      zerolog.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		log:      log,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("STARTTLS: %w", err)
		}
	}

	if s.username != "" && s.password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("SMTP authentication: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("SMTP MAIL command: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("SMTP RCPT command: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command: %w", err)
	}
	if _, err := wc.Write(s.buildMessage(msg)); err != nil {
		wc.Close()
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.log.Warn().Err(err).Msg("smtp QUIT command failed")
	}
	return nil
}

func (s *SMTPSender) buildMessage(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}

// LogSender writes mail to the log instead of sending it. Used when no SMTP
// host is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("body", msg.HTMLBody).Msg("mail not sent: no SMTP host configured")
	return nil
}
