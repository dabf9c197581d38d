package notifiers

import (
	"context"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
)

// Notifier is the capability contract every delivery channel satisfies.
// The rest of the application only ever talks to this interface, so new
// channels (e.g., Slack, webhooks) can be added without touching the
// fan-out or the worker.
type Notifier interface {
	// Channel identifies the delivery channel this notifier serves.
	Channel() model.Channel

	// Notify delivers one message to one recipient. A nil return means the
	// channel accepted the message. Implementations classify their own
	// failures: a recipient that can never work on this channel is reported
	// with ErrInvalidRecipient, transport trouble with a DeliveryError.
	Notify(ctx context.Context, recipient, message string) error
}
