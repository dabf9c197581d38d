package notifiers

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog"
)

// PushNotifier sends notifications to push services via shoutrrr. The
// recipient is a shoutrrr service URL (discord://..., gotify://..., etc),
// so one notifier covers every service the router knows about.
type PushNotifier struct {
	cfg    config.PushConfig
	logger zerolog.Logger
}

// NewPushNotifier creates a new instance of PushNotifier.
func NewPushNotifier(cfg config.PushConfig, logger *zerolog.Logger) *PushNotifier {
	return &PushNotifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "push_notifier").Logger(),
	}
}

// Channel implements the Notifier interface.
func (n *PushNotifier) Channel() model.Channel {
	return model.ChannelPush
}

// Notify implements the Notifier interface for push services. The sender is
// built per call because the service URL arrives as the recipient.
func (n *PushNotifier) Notify(ctx context.Context, recipient, message string) error {
	sender, err := shoutrrr.CreateSender(recipient)
	if err != nil {
		return fmt.Errorf("%w: %q is not a push service url", ErrInvalidRecipient, recipient)
	}
	if n.cfg.Timeout > 0 {
		sender.Timeout = n.cfg.Timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	params := stypes.Params{}
	if n.cfg.Title != "" {
		params.SetTitle(n.cfg.Title)
	}

	for _, sendErr := range sender.Send(message, &params) {
		if sendErr != nil {
			n.logger.Error().Err(sendErr).Msg("failed to send push notification")
			return &DeliveryError{Channel: model.ChannelPush, Err: sendErr, Retryable: true}
		}
	}

	n.logger.Info().Msg("push notification sent successfully")
	return nil
}
