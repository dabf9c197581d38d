package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Channel represents a delivery channel a notification can be fanned out to.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelTelegram Channel = "telegram"
	ChannelPush     Channel = "push"
)

// ErrUnknownChannel is returned when a channel name does not match any known channel.
var ErrUnknownChannel = errors.New("unknown channel")

// AllChannels returns every known channel in its canonical fan-out order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelTelegram, ChannelPush}
}

// ParseChannel validates a channel name received from the outside world.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS, ChannelTelegram, ChannelPush:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownChannel, s)
	}
}

// Status represents the current state of a notification.
type Status string

const (
	StatusScheduled Status = "scheduled" // The notification is waiting for its delivery time.
	StatusSent      Status = "sent"      // Every requested channel delivered successfully.
	StatusPartial   Status = "partial"   // Some channels delivered, the rest failed for good.
	StatusFailed    Status = "failed"    // No channel delivered after all retry attempts.
	StatusCancelled Status = "cancelled" // The notification was cancelled by a user request.
)

// DeliveryStatus represents the per-channel state of one fan-out leg.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery is the persistent per-channel outcome of a notification.
// One row exists for every channel the notification was requested on.
type Delivery struct {
	NotificationID uuid.UUID
	Channel        Channel
	Status         DeliveryStatus
	Attempts       int
	LastError      string // Empty unless the last attempt on this channel failed.
	UpdatedAt      time.Time
}

// Notification is the core business entity of the application.
// It is technology-agnostic and does not contain any DB or JSON tags.
type Notification struct {
	ID        uuid.UUID
	Recipient string // One recipient identifier, handed as-is to every channel.
	Message   string

	// Channels holds the channels still awaiting delivery. The worker narrows
	// this set as channels succeed or fail permanently, so a requeued
	// notification only retries what is left.
	Channels []Channel

	Status   Status
	Attempts int // Fan-out rounds performed so far.
	AuthorID *string

	ScheduledAt time.Time
	SentAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Deliveries mirrors the per-channel outcome rows. Populated on reads;
	// the original requested channel set can always be recovered from it.
	Deliveries []Delivery
}

// NewNotification is a factory function for a scheduled fan-out notification.
// A zero scheduledAt means "dispatch as soon as possible".
func NewNotification(recipient, message string, channels []Channel, scheduledAt time.Time, authorID *string) *Notification {
	now := time.Now().UTC()
	if scheduledAt.IsZero() {
		scheduledAt = now
	}

	id := uuid.New()
	deliveries := make([]Delivery, 0, len(channels))
	for _, ch := range channels {
		deliveries = append(deliveries, Delivery{
			NotificationID: id,
			Channel:        ch,
			Status:         DeliveryPending,
			UpdatedAt:      now,
		})
	}

	return &Notification{
		ID:          id,
		Recipient:   recipient,
		Message:     message,
		Channels:    channels,
		Status:      StatusScheduled,
		Attempts:    0,
		AuthorID:    authorID,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Deliveries:  deliveries,
	}
}

// StatusFromDeliveries derives the notification status from its per-channel
// legs: scheduled while anything is pending, then sent when everything
// delivered, failed when nothing did, partial in between.
func StatusFromDeliveries(deliveries []Delivery) Status {
	sent, failed := 0, 0
	for _, d := range deliveries {
		switch d.Status {
		case DeliverySent:
			sent++
		case DeliveryFailed:
			failed++
		case DeliveryPending:
			return StatusScheduled
		}
	}
	switch {
	case failed == 0:
		return StatusSent
	case sent == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
