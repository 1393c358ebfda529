package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/oncall-service/internal/config"
	"github.com/spec-kit/oncall-service/internal/domain"
)

// ErrNoAddress is returned when the recipient has no address for the channel.
var ErrNoAddress = errors.New("recipient has no address for channel")

// Sender delivers one notification over a single channel.
type Sender interface {
	Send(ctx context.Context, recipient *domain.Person, n domain.Notification) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, recipient *domain.Person, n domain.Notification) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, recipient *domain.Person, n domain.Notification) error {
	return f(ctx, recipient, n)
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	dialer mailDialer
	from   string
}

// NewEmailSender builds an SMTP sender from configuration.
func NewEmailSender(cfg config.NotificationConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.EmailFrom,
	}
}

// Send implements Sender.
func (s *EmailSender) Send(_ context.Context, recipient *domain.Person, n domain.Notification) error {
	if recipient.Email == "" {
		return fmt.Errorf("email to %s: %w", recipient.ID, ErrNoAddress)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetAddressHeader("To", recipient.Email, recipient.Name)
	msg.SetHeader("Subject", "On-call rotation")
	msg.SetBody("text/plain", n.Message)
	return s.dialer.DialAndSend(msg)
}

// NewLogSender returns a sender that only logs. It stands in for channels
// without a configured transport.
func NewLogSender(logger *zap.Logger) Sender {
	return SenderFunc(func(_ context.Context, recipient *domain.Person, n domain.Notification) error {
		logger.Info("notification delivered to log",
			zap.String("notification_id", n.ID),
			zap.String("person_id", recipient.ID),
			zap.String("channel", string(n.Channel)),
			zap.String("message", n.Message))
		return nil
	})
}

// NewSenders picks a transport per channel: SMTP for email when a host is
// configured, logging otherwise.
func NewSenders(cfg config.NotificationConfig, logger *zap.Logger) map[domain.NotificationChannel]Sender {
	logSender := NewLogSender(logger)
	senders := map[domain.NotificationChannel]Sender{
		domain.NotificationChannelEmail: logSender,
		domain.NotificationChannelPush:  logSender,
	}
	if cfg.SMTPHost != "" {
		senders[domain.NotificationChannelEmail] = NewEmailSender(cfg)
	}
	return senders
}
