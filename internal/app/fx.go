package app

import (
	"context"
	"net/http"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/consumer"
	deliveryHTTP "github.com/ilindan-dev/fanout-notifier/internal/delivery/http"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	"github.com/ilindan-dev/fanout-notifier/internal/logger"
	"github.com/ilindan-dev/fanout-notifier/internal/metrics"
	"github.com/ilindan-dev/fanout-notifier/internal/notifiers"
	"github.com/ilindan-dev/fanout-notifier/internal/service"
	"github.com/ilindan-dev/fanout-notifier/internal/storage/postgres"
	"github.com/ilindan-dev/fanout-notifier/internal/storage/rabbitmq"
	"github.com/ilindan-dev/fanout-notifier/internal/storage/redis"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// CommonModule provides dependencies that are shared between the API and Worker applications.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,
		metrics.New,

		// Storage Layer - concrete implementations
		postgres.NewPool,
		redis.NewClient,
		rabbitmq.NewConnection,
		redis.NewNotificationCache,
		postgres.NewNotificationRepository,
		rabbitmq.NewRabbitMQQueue,

		// Interface bindings
		func(q *rabbitmq.RabbitMQQueue) repo.NotificationQueue { return q },

		// Service Layer
		service.NewNotificationService,
	),

	fx.Decorate(func(
		pgRepo *postgres.NotificationRepository,
		cache *redis.NotificationCache,
		logger *zerolog.Logger,
	) repo.NotificationRepository {
		return redis.NewCachedNotificationRepository(pgRepo, cache, logger)
	}),

	// Close shared connections on shutdown. This hook is appended first,
	// so it runs after the server and consumer hooks have stopped.
	fx.Invoke(func(
		lc fx.Lifecycle,
		pool *pgxpool.Pool,
		rdb *goredis.Client,
		conn *amqp.Connection,
		queue *rabbitmq.RabbitMQQueue,
	) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = queue.Close()
				_ = conn.Close()
				_ = rdb.Close()
				pool.Close()
				return nil
			},
		})
	}),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// API-specific components
		deliveryHTTP.NewHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						panic(err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the background worker application.
var WorkerModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// Worker-specific components
		notifiers.New,
		notifiers.NewFanout,
		func(f *notifiers.Fanout) notifiers.Sender { return f },
		metrics.NewServer,
		consumer.New,
	),

	fx.Invoke(func(server *metrics.Server, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						panic(err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),

	// The consumer outlives OnStart, so it runs on its own context rather
	// than the short-lived hook one. OnStop cancels it and waits for the
	// worker pool to drain.
	fx.Invoke(func(c *consumer.Consumer, log *zerolog.Logger, lc fx.Lifecycle) {
		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					defer close(done)
					if err := c.Start(runCtx); err != nil {
						log.Error().Err(err).Msg("consumer stopped with error")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
		})
	}),
)
