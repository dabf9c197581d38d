package notifiers

import (
	"context"
	"testing"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTelegramNotifierInvalidRecipient(t *testing.T) {
	// The chat ID is parsed before the bot is touched, so no API access
	// is needed for this path.
	n := &TelegramNotifier{logger: zerolog.Nop()}

	err := n.Notify(context.Background(), "not-a-chat-id", "hello")

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.False(t, Retryable(err))
}

func TestTelegramNotifierChannel(t *testing.T) {
	n := &TelegramNotifier{logger: zerolog.Nop()}
	assert.Equal(t, model.ChannelTelegram, n.Channel())
}
