// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
	"go.uber.org/zap"
)

// Email is one outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. Timeout bounds the dial and the whole SMTP
// exchange; zero keeps the library default.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Timeout  time.Duration
}

// Sender sends emails.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// ErrNoRecipient is returned when Email.To is empty.
var ErrNoRecipient = errors.New("email has no recipient")

// transport is the part of *email.Sender the mailer uses.
type transport interface {
	Send(ctx context.Context, msg email.Message) error
}

// Mailer sends email through an SMTP relay.
type Mailer struct {
	transport transport
	logger    *zap.Logger
}

// New creates an SMTP mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{
		transport: email.NewSender(email.Config{
			Host:        cfg.Host,
			Port:        cfg.Port,
			Username:    cfg.User,
			Password:    cfg.Pass,
			FromAddress: cfg.From,
			FromName:    cfg.FromName,
			Timeout:     cfg.Timeout,
		}),
		logger: logger,
	}
}

// Send delivers e. ctx cancels the SMTP exchange.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}

	start := time.Now()
	err := m.transport.Send(ctx, email.Message{
		To:       []string{e.To},
		Subject:  e.Subject,
		TextBody: e.TextBody,
		HTMLBody: e.HTMLBody,
	})
	if err != nil {
		return fmt.Errorf("smtp send to %s: %w", e.To, err)
	}
	m.logger.Debug("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Duration("took", time.Since(start)))
	return nil
}
