package notifiers

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailNotifier sends notifications via SMTP.
type EmailNotifier struct {
	dialer  *gomail.Dialer
	from    string
	subject string
	logger  zerolog.Logger
}

// NewEmailNotifier creates a new instance of EmailNotifier. The subject line
// is part of the transport configuration: every message this channel sends
// uses the same one.
func NewEmailNotifier(cfg config.EmailConfig, logger *zerolog.Logger) *EmailNotifier {
	subject := cfg.Subject
	if subject == "" {
		subject = "Notification"
	}
	return &EmailNotifier{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		subject: subject,
		logger:  logger.With().Str("component", "email_notifier").Logger(),
	}
}

// Channel implements the Notifier interface.
func (n *EmailNotifier) Channel() model.Channel {
	return model.ChannelEmail
}

// Notify implements the Notifier interface for email.
func (n *EmailNotifier) Notify(_ context.Context, recipient, message string) error {
	if _, err := mail.ParseAddress(recipient); err != nil {
		return fmt.Errorf("%w: %q is not an email address", ErrInvalidRecipient, recipient)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", n.subject)
	m.SetBody("text/plain", message)

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Error().Err(err).Str("recipient", recipient).Msg("failed to send email")
		return &DeliveryError{Channel: model.ChannelEmail, Err: err, Retryable: true}
	}

	n.logger.Info().Str("recipient", recipient).Msg("email sent successfully")
	return nil
}
