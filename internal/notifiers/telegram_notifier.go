package notifiers

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
)

// TelegramNotifier sends notifications via a Telegram bot.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// NewTelegramNotifier creates a new instance of TelegramNotifier.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// Channel implements the Notifier interface.
func (n *TelegramNotifier) Channel() model.Channel {
	return model.ChannelTelegram
}

// Notify implements the Notifier interface for Telegram. The recipient is
// a numeric chat ID.
func (n *TelegramNotifier) Notify(ctx context.Context, recipient, message string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a telegram chat id", ErrInvalidRecipient, recipient)
	}

	msg := tgbotapi.NewMessage(chatID, message)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send telegram message")
		return &DeliveryError{Channel: model.ChannelTelegram, Err: err, Retryable: true}
	}

	n.logger.Info().Int64("chat_id", chatID).Msg("telegram message sent successfully")
	return nil
}
