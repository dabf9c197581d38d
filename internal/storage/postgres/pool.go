package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// dialAttempts bounds how many pings we try before giving up.
	dialAttempts = 5
	// dialTimeout bounds the whole startup handshake.
	dialTimeout = 30 * time.Second
)

// NewPool creates a pgx connection pool and verifies connectivity.
// The ping is retried with exponential backoff so the service survives
// the database coming up a little later than we do.
func NewPool(cfg *config.Config, logger *zerolog.Logger) (*pgxpool.Pool, error) {
	log := logger.With().Str("layer", "postgres_pool").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse dsn: %w", err)
	}
	if cfg.Postgres.Pool.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.Pool.MaxConns
	}
	if cfg.Postgres.Pool.MinConns > 0 {
		poolCfg.MinConns = cfg.Postgres.Pool.MinConns
	}
	if cfg.Postgres.Pool.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Postgres.Pool.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	ping := func() error {
		if err := pool.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("postgres not ready yet, retrying")
			return err
		}
		return nil
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), dialAttempts)
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}

	log.Info().Msg("connected to postgres")
	return pool, nil
}
