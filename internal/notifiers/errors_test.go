package notifiers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil is not a failure",
			err:  nil,
			want: false,
		},
		{
			name: "invalid recipient is permanent",
			err:  ErrInvalidRecipient,
			want: false,
		},
		{
			name: "wrapped invalid recipient is still permanent",
			err:  fmt.Errorf("%w: %q is not a phone number", ErrInvalidRecipient, "bob"),
			want: false,
		},
		{
			name: "delivery error carries its own verdict - retryable",
			err:  &DeliveryError{Channel: model.ChannelSMS, Err: errors.New("503"), Retryable: true},
			want: true,
		},
		{
			name: "delivery error carries its own verdict - permanent",
			err:  &DeliveryError{Channel: model.ChannelSMS, Err: errors.New("400"), Retryable: false},
			want: false,
		},
		{
			name: "unclassified errors are assumed transient",
			err:  errors.New("connection reset"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	inner := errors.New("gateway returned 502")
	err := &DeliveryError{Channel: model.ChannelSMS, Err: inner, Retryable: true}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "sms delivery failed")

	var derr *DeliveryError
	wrapped := fmt.Errorf("round one: %w", err)
	assert.ErrorAs(t, wrapped, &derr)
	assert.Equal(t, model.ChannelSMS, derr.Channel)
}
