package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Ensure RabbitMQQueue implements the repository interface at compile time.
var _ repo.NotificationQueue = (*RabbitMQQueue)(nil)

// Constants for our RabbitMQ topology.
const (
	WaitExchange          = "wait.exchange"
	RetryExchange         = "retry.exchange"
	NotificationsExchange = "notifications.exchange"

	NotificationsQueue = "notifications.queue.process"
	WaitQueue          = "wait.queue.delay"
	RetryQueue         = "retry.queue.delay"

	Direct = "direct"
)

// Envelope is the message body that travels through the broker. It carries
// only the notification ID: the worker always reloads the latest state from
// the repository, so a requeued message can never act on stale data.
type Envelope struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// RabbitMQQueue implements the NotificationQueue interface. It acts as a PUBLISHER.
// It uses the low-level amqp091-go library directly for reliability.
type RabbitMQQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger zerolog.Logger
}

// NewRabbitMQQueue creates a new instance of the RabbitMQQueue publisher.
// It receives a shared amqp.Connection to create its own channel.
func NewRabbitMQQueue(conn *amqp.Connection, logger *zerolog.Logger) (*RabbitMQQueue, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}

	queue := &RabbitMQQueue{
		conn:   conn,
		ch:     channel,
		logger: logger.With().Str("component", "rabbitmq_publisher").Logger(),
	}

	if err = queue.setupTopology(); err != nil {
		queue.logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}

	return queue, nil
}

// setupTopology declares all necessary exchanges and queues. The wait and
// retry queues have no consumers: messages sit there until their per-message
// TTL expires and dead-letters them into the processing exchange.
func (q *RabbitMQQueue) setupTopology() error {
	q.logger.Info().Msg("setting up rabbitmq topology")

	exchangesToDeclare := []struct {
		name string
		kind string
	}{
		{NotificationsExchange, Direct},
		{WaitExchange, Direct},
		{RetryExchange, Direct},
	}
	for _, exInfo := range exchangesToDeclare {
		if err := q.ch.ExchangeDeclare(exInfo.name, exInfo.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exInfo.name, err)
		}
	}

	deadLetterArgs := amqp.Table{"x-dead-letter-exchange": NotificationsExchange}
	queuesToDeclare := []struct {
		name string
		args amqp.Table
	}{
		{NotificationsQueue, nil},
		{WaitQueue, deadLetterArgs},
		{RetryQueue, deadLetterArgs},
	}
	for _, qInfo := range queuesToDeclare {
		if _, err := q.ch.QueueDeclare(qInfo.name, true, false, false, false, qInfo.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", qInfo.name, err)
		}
	}

	bindings := []struct {
		queue    string
		exchange string
	}{
		{NotificationsQueue, NotificationsExchange},
		{WaitQueue, WaitExchange},
		{RetryQueue, RetryExchange},
	}
	for _, b := range bindings {
		if err := q.ch.QueueBind(b.queue, "", b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", b.queue, b.exchange, err)
		}
	}

	q.logger.Info().Msg("rabbitmq topology setup successful")
	return nil
}

// Publish schedules a notification for delayed processing. The message waits
// in the wait queue until the scheduled time, then dead-letters into the
// processing queue.
func (q *RabbitMQQueue) Publish(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(Envelope{NotificationID: n.ID})
	if err != nil {
		q.logger.Error().Err(err).Stringer("id", n.ID).Msg("failed to marshal envelope")
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	delay := time.Until(n.ScheduledAt)
	if delay < 0 {
		delay = 0
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
	}

	return q.ch.PublishWithContext(ctx, WaitExchange, "", false, false, msg)
}

// PublishRetry schedules a notification for a retry attempt after the
// given delay.
func (q *RabbitMQQueue) PublishRetry(ctx context.Context, n *model.Notification, retryDelay time.Duration) error {
	body, err := json.Marshal(Envelope{NotificationID: n.ID})
	if err != nil {
		q.logger.Error().Err(err).Stringer("id", n.ID).Msg("failed to marshal envelope for retry")
		return fmt.Errorf("failed to marshal envelope for retry: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.FormatInt(retryDelay.Milliseconds(), 10),
	}

	return q.ch.PublishWithContext(ctx, RetryExchange, "", false, false, msg)
}

// Close gracefully shuts down the channel. The connection is managed by Fx.
func (q *RabbitMQQueue) Close() error {
	if q.ch != nil {
		return q.ch.Close()
	}
	return nil
}
