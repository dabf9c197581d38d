package notifiers

import (
	"context"
	"testing"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newPushTestNotifier() *PushNotifier {
	logger := zerolog.Nop()
	return NewPushNotifier(config.PushConfig{Enabled: true, Title: "Notification"}, &logger)
}

func TestPushNotifierInvalidRecipient(t *testing.T) {
	n := newPushTestNotifier()

	err := n.Notify(context.Background(), "not a service url", "hello")

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.False(t, Retryable(err))
}

func TestPushNotifierChannel(t *testing.T) {
	assert.Equal(t, model.ChannelPush, newPushTestNotifier().Channel())
}
