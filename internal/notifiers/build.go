package notifiers

import (
	"fmt"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
)

// New assembles the ordered notifier set based on the application's
// configuration mode. The returned order is the order the Fanout will
// deliver in.
//
// In "log_only" mode every channel gets a LogNotifier, so the full pipeline
// works without any external credentials. In "production" mode each real
// notifier is enabled only when its config section is filled in.
func New(cfg *config.Config, logger *zerolog.Logger) ([]Notifier, error) {
	log := logger.With().Str("component", "notifiers").Logger()
	log.Info().Str("mode", cfg.Notifiers.Mode).Msg("initializing notifiers")

	if cfg.Notifiers.Mode != "production" {
		set := make([]Notifier, 0, len(model.AllChannels()))
		for _, ch := range model.AllChannels() {
			set = append(set, NewLogNotifier(ch, logger))
		}
		return set, nil
	}

	var set []Notifier
	if cfg.Notifiers.Email.Host != "" {
		set = append(set, NewEmailNotifier(cfg.Notifiers.Email, logger))
		log.Info().Msg("email notifier enabled")
	}
	if cfg.Notifiers.SMS.URL != "" {
		set = append(set, NewSMSNotifier(cfg.Notifiers.SMS, logger))
		log.Info().Msg("sms notifier enabled")
	}
	if cfg.Notifiers.Telegram.BotToken != "" {
		tgNotifier, err := NewTelegramNotifier(cfg.Notifiers.Telegram, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
		set = append(set, tgNotifier)
		log.Info().Msg("telegram notifier enabled")
	}
	if cfg.Notifiers.Push.Enabled {
		set = append(set, NewPushNotifier(cfg.Notifiers.Push, logger))
		log.Info().Msg("push notifier enabled")
	}

	if len(set) == 0 {
		log.Warn().Msg("no notifiers enabled, every send will be an empty fanout")
	}

	return set, nil
}
