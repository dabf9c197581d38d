package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
)

// CreateNotificationRequest defines the structure for a new notification request.
// It uses `json` tags for unmarshalling and `binding` for validation with Gin.
// Channels is optional: when omitted, the notification fans out to every
// channel the system knows about. ScheduledAt is optional too: a zero value
// means "dispatch as soon as possible".
type CreateNotificationRequest struct {
	Recipient   string    `json:"recipient" binding:"required"`
	Message     string    `json:"message" binding:"required"`
	Channels    []string  `json:"channels,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
	AuthorID    *string   `json:"author_id,omitempty"`
}

// DeliveryResponse describes the state of one fan-out leg.
type DeliveryResponse struct {
	Channel   string    `json:"channel"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationResponse defines the structure for a standard notification response.
// We don't expose all internal fields to the client.
type NotificationResponse struct {
	ID          uuid.UUID          `json:"id"`
	Status      string             `json:"status"`
	Recipient   string             `json:"recipient"`
	ScheduledAt time.Time          `json:"scheduled_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Deliveries  []DeliveryResponse `json:"deliveries"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// toNotificationResponse is a helper function to map the domain model to the DTO.
func toNotificationResponse(n *model.Notification) NotificationResponse {
	deliveries := make([]DeliveryResponse, 0, len(n.Deliveries))
	for _, d := range n.Deliveries {
		deliveries = append(deliveries, DeliveryResponse{
			Channel:   string(d.Channel),
			Status:    string(d.Status),
			Attempts:  d.Attempts,
			LastError: d.LastError,
			UpdatedAt: d.UpdatedAt,
		})
	}

	return NotificationResponse{
		ID:          n.ID,
		Status:      string(n.Status),
		Recipient:   n.Recipient,
		ScheduledAt: n.ScheduledAt,
		SentAt:      n.SentAt,
		CreatedAt:   n.CreatedAt,
		Deliveries:  deliveries,
	}
}
