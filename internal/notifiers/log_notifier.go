package notifiers

import (
	"context"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
)

// LogNotifier is a mock notifier that implements the Notifier interface.
// It simply logs the notification details to the console instead of sending
// them through a real channel. This is extremely useful for development and
// testing: one instance per channel gives the fanout a full set of variants
// without any external credentials.
type LogNotifier struct {
	channel model.Channel
	logger  zerolog.Logger
}

// NewLogNotifier creates a new instance of LogNotifier impersonating
// the given channel.
func NewLogNotifier(channel model.Channel, logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		channel: channel,
		logger:  logger.With().Str("component", "log_notifier").Logger(),
	}
}

// Channel implements the Notifier interface.
func (n *LogNotifier) Channel() model.Channel {
	return n.channel
}

// Notify implements the Notifier interface.
func (n *LogNotifier) Notify(ctx context.Context, recipient, message string) error {
	n.logger.Info().
		Str("channel", string(n.channel)).
		Str("recipient", recipient).
		Str("message", message).
		Msg(">>> MOCK SEND: Notification dispatched")

	return nil
}
