package notifiers

import (
	"errors"
	"fmt"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
)

// ErrInvalidRecipient marks a recipient that can never be delivered to on a
// given channel (e.g., a phone number handed to the email notifier).
// Retrying such a delivery is pointless.
var ErrInvalidRecipient = errors.New("invalid recipient")

// DeliveryError wraps a transport-level failure and records whether another
// attempt could still succeed. A rejected message (4xx from a gateway) is
// permanent; an unreachable transport usually is not.
type DeliveryError struct {
	Channel   model.Channel
	Err       error
	Retryable bool
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a failed delivery is worth another attempt.
// Invalid recipients never are, DeliveryErrors carry their own verdict, and
// anything unclassified is assumed to be transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidRecipient) {
		return false
	}
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr.Retryable
	}
	return true
}
