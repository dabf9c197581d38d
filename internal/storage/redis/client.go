package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ilindan-dev/fanout-notifier/internal/config"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// dialAttempts bounds how many pings we try before giving up.
	dialAttempts = 5
	// dialTimeout bounds the whole startup handshake.
	dialTimeout = 30 * time.Second
)

// NewClient creates a go-redis client and verifies connectivity with a
// retried ping, mirroring the postgres pool startup behavior.
func NewClient(cfg *config.Config, logger *zerolog.Logger) (*goredis.Client, error) {
	log := logger.With().Str("layer", "redis_client").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ping := func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis not ready yet, retrying")
			return err
		}
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), dialAttempts)
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	return client, nil
}
