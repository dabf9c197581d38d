package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	"github.com/ilindan-dev/fanout-notifier/internal/notifiers"
	"github.com/ilindan-dev/fanout-notifier/internal/service"
	"github.com/ilindan-dev/fanout-notifier/internal/storage/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultMaxRetries is the fallback number of fan-out rounds per notification.
	defaultMaxRetries = 5
	// defaultWorkerCount is the fallback number of worker goroutines in the pool.
	defaultWorkerCount = 5
)

// Consumer listens to a RabbitMQ queue and processes messages using a pool of
// workers. Each message triggers one fan-out round over the channels still
// pending for that notification.
type Consumer struct {
	cfg     *config.Config
	logger  zerolog.Logger
	conn    *amqp.Connection // Raw connection to create channels for each worker.
	service *service.NotificationService
	queue   repo.NotificationQueue
	fanout  notifiers.Sender
}

// New creates a new instance of Consumer.
func New(
	cfg *config.Config,
	logger *zerolog.Logger,
	conn *amqp.Connection,
	service *service.NotificationService,
	queue repo.NotificationQueue,
	fanout notifiers.Sender,
) *Consumer {
	return &Consumer{
		cfg:     cfg,
		logger:  logger.With().Str("component", "consumer").Logger(),
		conn:    conn,
		service: service,
		queue:   queue,
		fanout:  fanout,
	}
}

// Start launches the worker pool to process messages from the queue.
// This is a blocking method that will run until the context is cancelled
// or a worker fails to set itself up.
func (c *Consumer) Start(ctx context.Context) error {
	count := c.cfg.Worker.Count
	if count <= 0 {
		count = defaultWorkerCount
	}
	c.logger.Info().Int("count", count).Msg("Starting worker pool")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		workerID := i + 1
		g.Go(func() error {
			return c.runWorker(ctx, workerID)
		})
	}

	err := g.Wait()
	c.logger.Info().Msg("Consumer stopped")
	return err
}

// runWorker contains the main logic for a single worker goroutine.
func (c *Consumer) runWorker(ctx context.Context, workerID int) error {
	logger := c.logger.With().Int("worker_id", workerID).Logger()
	logger.Info().Msg("Worker started")

	ch, err := c.conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open channel for worker")
		return fmt.Errorf("worker %d: failed to open channel: %w", workerID, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error().Err(err).Msg("Failed to set QoS")
		return fmt.Errorf("worker %d: failed to set qos: %w", workerID, err)
	}

	msgs, err := ch.Consume(
		rabbitmq.NotificationsQueue,
		fmt.Sprintf("worker-%d", workerID), // A unique consumer tag.
		false,                              // autoAck: false. We will manually acknowledge messages.
		false,                              // exclusive
		false,                              // noLocal
		false,                              // noWait
		nil,                                // args
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register a consumer")
		return fmt.Errorf("worker %d: failed to register consumer: %w", workerID, err)
	}

	logger.Info().Msg("Worker is waiting for messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker stopping due to context cancellation")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn().Msg("Message channel closed by RabbitMQ, worker stopping")
				return nil
			}
			c.handleMessage(ctx, msg, logger)
		}
	}
}

// handleMessage processes a single message from the queue. The message only
// carries the notification ID; the latest state is always reloaded from the
// repository so cancellations and earlier rounds are respected.
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
	var envelope rabbitmq.Envelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal message, rejecting")
		_ = msg.Nack(false, false)
		return
	}

	log := logger.With().Stringer("notification_id", envelope.NotificationID).Logger()

	latest, err := c.service.GetNotificationByID(ctx, envelope.NotificationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("Notification no longer exists, skipping")
			_ = msg.Ack(false)
			return
		}
		log.Error().Err(err).Msg("Failed to load notification, requeueing")
		_ = msg.Nack(false, true)
		return
	}
	if latest.Status != model.StatusScheduled {
		log.Warn().Str("status", string(latest.Status)).Msg("Notification is no longer scheduled, skipping")
		_ = msg.Ack(false)
		return
	}

	latest.Attempts++
	log.Info().
		Int("attempt", latest.Attempts).
		Int("channels", len(latest.Channels)).
		Msg("Processing notification")

	report := c.fanout.SendTo(ctx, latest.Channels, latest.Recipient, latest.Message)

	canRetry := latest.Attempts < c.maxRetries()
	retryChannels, err := c.applyReport(ctx, latest, report, canRetry)
	if err != nil {
		log.Error().Err(err).Msg("CRITICAL: failed to record delivery outcomes")
		_ = msg.Nack(false, true)
		return
	}

	if len(retryChannels) > 0 {
		c.scheduleRetry(ctx, latest, retryChannels, msg, log)
		return
	}

	c.finalize(ctx, latest, msg, log)
}

// applyReport merges one fan-out round into the pending delivery rows and
// returns the channels worth another attempt. A pending channel the fanout
// did not cover fails immediately: no amount of retrying will conjure up a
// notifier for it.
func (c *Consumer) applyReport(ctx context.Context, n *model.Notification, report model.Report, canRetry bool) ([]model.Channel, error) {
	results := make(map[model.Channel]model.DeliveryResult, len(report.Results))
	for _, res := range report.Results {
		results[res.Channel] = res
	}

	var retry []model.Channel
	for i := range n.Deliveries {
		d := &n.Deliveries[i]
		if d.Status != model.DeliveryPending {
			continue // settled in an earlier round
		}

		res, attempted := results[d.Channel]
		switch {
		case !attempted:
			d.Status = model.DeliveryFailed
			d.LastError = "no notifier configured for channel"
		case res.OK():
			d.Attempts++
			d.Status = model.DeliverySent
			d.LastError = ""
		case notifiers.Retryable(res.Err) && canRetry:
			d.Attempts++
			d.LastError = res.Err.Error()
			retry = append(retry, d.Channel)
		default:
			d.Attempts++
			d.Status = model.DeliveryFailed
			d.LastError = res.Err.Error()
		}

		if err := c.service.RecordDelivery(ctx, d); err != nil {
			return nil, err
		}
	}

	return retry, nil
}

// scheduleRetry narrows the notification to the channels that are still
// worth attempting and requeues it with an exponential backoff.
func (c *Consumer) scheduleRetry(ctx context.Context, n *model.Notification, channels []model.Channel, msg amqp.Delivery, log zerolog.Logger) {
	n.Channels = channels
	if err := c.service.UpdateNotification(ctx, n); err != nil {
		log.Error().Err(err).Msg("CRITICAL: failed to update notification before retry")
		_ = msg.Nack(false, true)
		return
	}

	backoffDuration := c.retryBackoff(n.Attempts)
	log.Warn().
		Int("attempt", n.Attempts).
		Int("channels", len(channels)).
		Dur("backoff", backoffDuration).
		Msg("Some channels failed, scheduling retry")

	if err := c.queue.PublishRetry(ctx, n, backoffDuration); err != nil {
		log.Error().Err(err).Msg("CRITICAL: failed to publish message to retry queue")
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}

// finalize derives the terminal status from the delivery rows once no
// channel is pending anymore.
func (c *Consumer) finalize(ctx context.Context, n *model.Notification, msg amqp.Delivery, log zerolog.Logger) {
	n.Channels = nil
	n.Status = model.StatusFromDeliveries(n.Deliveries)
	if n.Status == model.StatusSent || n.Status == model.StatusPartial {
		now := time.Now().UTC()
		n.SentAt = &now
	}

	if err := c.service.UpdateNotification(ctx, n); err != nil {
		log.Error().Err(err).Str("status", string(n.Status)).Msg("CRITICAL: failed to update notification status after fan-out")
		_ = msg.Nack(false, true)
		return
	}

	switch n.Status {
	case model.StatusSent:
		log.Info().Msg("Notification sent successfully")
	case model.StatusPartial:
		log.Warn().Msg("Notification delivered partially")
	default:
		log.Error().Msg("Notification failed on every channel")
	}

	_ = msg.Ack(false)
}

func (c *Consumer) maxRetries() int {
	if c.cfg.Worker.MaxRetries > 0 {
		return c.cfg.Worker.MaxRetries
	}
	return defaultMaxRetries
}

// retryBackoff implements the exponential backoff strategy.
// Formula: base * 2^(attempt)
func (c *Consumer) retryBackoff(attempt int) time.Duration {
	base := c.cfg.Worker.RetryBaseDelay
	if base <= 0 {
		base = 5 * time.Second
	}
	return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
}
