package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ilindan-dev/fanout-notifier/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// dialAttempts bounds how many dials we try before giving up.
	dialAttempts = 5
	// dialTimeout bounds the whole startup handshake.
	dialTimeout = 30 * time.Second
)

// NewConnection creates and returns a raw amqp.Connection.
// This single connection will be shared across the application (producer and
// consumer). The dial is retried with exponential backoff so the service
// survives the broker coming up a little later than we do.
func NewConnection(cfg *config.Config, logger *zerolog.Logger) (*amqp.Connection, error) {
	log := logger.With().Str("layer", "rabbitmq_connection").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	var conn *amqp.Connection
	dial := func() error {
		var err error
		conn, err = amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq not ready yet, retrying")
			return err
		}
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), dialAttempts)
	if err := backoff.Retry(dial, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}

	log.Info().Msg("connected to rabbitmq")
	return conn, nil
}
