// Package mailer abstracts the outgoing mail transport. The worker only
// depends on the Mailer interface, so tests and local runs can swap the
// SMTP transport for a logging one.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"habitd/pkg/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the transport from config: "smtp" for real delivery,
// anything else logs the message and sends nothing.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Driver == "smtp" {
		return NewSMTP(cfg)
	}
	return &Log{from: cfg.From, logger: logger}
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTP(cfg config.MailConfig) *SMTP {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTP{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTP) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Log writes the message to the logger instead of delivering it.
type Log struct {
	from   string
	logger *zap.Logger
}

func (m *Log) Send(_ context.Context, msg Message) error {
	m.logger.Info("Mail (log driver, not delivered)",
		zap.String("from", m.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
