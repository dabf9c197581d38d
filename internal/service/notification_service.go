package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	"github.com/ilindan-dev/fanout-notifier/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrNotCancellable is returned when a cancel request arrives for a
// notification that already left the scheduled state.
var ErrNotCancellable = errors.New("notification is not cancellable")

// NotificationService encapsulates the business logic for managing notifications.
// It orchestrates the repository and the queue.
type NotificationService struct {
	repo    repo.NotificationRepository
	queue   repo.NotificationQueue
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewNotificationService(
	repo repo.NotificationRepository,
	queue repo.NotificationQueue,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		repo:    repo,
		queue:   queue,
		metrics: m,
		logger:  logger.With().Str("layer", "service").Logger(),
	}
}

// CreateNotification orchestrates the creation of a new fan-out notification.
// It resolves the channel set, saves the notification, and publishes it to
// the queue. An empty channel list means "every channel we know about".
//
// The recipient is stored as-is: each channel validates it against its own
// format at delivery time, so one identifier can legitimately fail on some
// channels and deliver on others.
func (s *NotificationService) CreateNotification(ctx context.Context, recipient, message string, channelNames []string, scheduledAt time.Time, authorID *string) (*model.Notification, error) {
	channels, err := resolveChannels(channelNames)
	if err != nil {
		s.logger.Warn().Err(err).Msg("invalid channel list")
		return nil, err
	}
	s.logger.Info().Int("channels", len(channels)).Msg("creating new notification")

	notification := model.NewNotification(recipient, message, channels, scheduledAt, authorID)

	createdNotification, err := s.repo.Save(ctx, notification)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to save notification")
		return nil, err
	}
	s.logger.Info().Stringer("id", createdNotification.ID).Msg("notification saved successfully")

	err = s.queue.Publish(ctx, createdNotification)
	if err != nil {
		s.logger.Error().Err(err).Stringer("id", createdNotification.ID).Msg("CRITICAL: failed to publish notification to queue after saving")
		return nil, fmt.Errorf("failed to schedule notification: %w", err)
	}
	s.logger.Info().Stringer("id", createdNotification.ID).Msg("notification published to queue")

	s.metrics.NotificationCreated()
	return createdNotification, nil
}

// GetNotificationByID retrieves a notification by its ID.
// The business logic is simple: just ask the repository.
// The repository decorator handles the cache-aside logic transparently.
func (s *NotificationService) GetNotificationByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Msgf("Failed to get notification by ID: %s", id)
		return nil, err
	}
	return n, nil
}

// UpdateNotification is used by the consumer to update the status after a
// fan-out round. The repository decorator will handle cache invalidation.
func (s *NotificationService) UpdateNotification(ctx context.Context, n *model.Notification) error {
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Error().Err(err).Msgf("Failed to update notification: %s", n.ID)
		return err
	}
	return nil
}

// RecordDelivery persists the outcome of one fan-out leg.
func (s *NotificationService) RecordDelivery(ctx context.Context, d *model.Delivery) error {
	if err := s.repo.UpdateDelivery(ctx, d); err != nil {
		s.logger.Error().Err(err).
			Stringer("id", d.NotificationID).
			Str("channel", string(d.Channel)).
			Msg("failed to record delivery outcome")
		return err
	}
	return nil
}

// CancelNotification cancels a scheduled notification. Notifications that
// already entered delivery cannot be cancelled.
func (s *NotificationService) CancelNotification(ctx context.Context, id uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("notification_id", id.String()).Msg("can't get notification")
		return err
	}

	if notification.Status != model.StatusScheduled {
		s.logger.Warn().Str("notification_id", id.String()).Msg("can't cancel notification")
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, notification.Status)
	}

	s.logger.Info().Str("notification_id", id.String()).Msg("cancel notification")
	return s.repo.Delete(ctx, id)
}

// resolveChannels parses and deduplicates the requested channel names,
// preserving their order. An empty list resolves to every known channel.
func resolveChannels(names []string) ([]model.Channel, error) {
	if len(names) == 0 {
		return model.AllChannels(), nil
	}

	seen := make(map[model.Channel]bool, len(names))
	channels := make([]model.Channel, 0, len(names))
	for _, name := range names {
		ch, err := model.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}
	return channels, nil
}
