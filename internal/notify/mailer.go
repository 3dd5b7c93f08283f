package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/citivoice/complaint-server/internal/config"
	"go.uber.org/zap"
)

// Mailer delivers a rendered email
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers one HTML message
func (m *SMTPMailer) Send(_ context.Context, to, subject, html string) error {
	addr := m.cfg.SMTPHost + ":" + strconv.Itoa(m.cfg.SMTPPort)

	msg := "From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer logs instead of sending. Used in development without SMTP.
type LogMailer struct {
	logger *zap.SugaredLogger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.SugaredLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the envelope
func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.logger.Infow("Email not sent (SMTP not configured)", "to", to, "subject", subject, "bytes", len(html))
	return nil
}
