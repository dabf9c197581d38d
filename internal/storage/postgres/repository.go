package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Ensure NotificationRepository implements the interface
var _ repo.NotificationRepository = (*NotificationRepository)(nil)

const createNotificationSQL = `
INSERT INTO notifications (id, recipient, message, channels, status, attempts, author_id, scheduled_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const createDeliverySQL = `
INSERT INTO deliveries (notification_id, channel, status, attempts, last_error, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const getNotificationSQL = `
SELECT id, recipient, message, channels, status, attempts, author_id, scheduled_at, sent_at, created_at, updated_at
FROM notifications
WHERE id = $1`

const listDeliveriesSQL = `
SELECT notification_id, channel, status, attempts, last_error, updated_at
FROM deliveries
WHERE notification_id = $1
ORDER BY id`

const updateNotificationSQL = `
UPDATE notifications
SET status = $2, attempts = $3, channels = $4, sent_at = $5, updated_at = now()
WHERE id = $1
RETURNING updated_at`

const updateDeliverySQL = `
UPDATE deliveries
SET status = $3, attempts = $4, last_error = $5, updated_at = now()
WHERE notification_id = $1 AND channel = $2
RETURNING updated_at`

const cancelNotificationSQL = `
UPDATE notifications
SET status = 'cancelled', updated_at = now()
WHERE id = $1
RETURNING updated_at`

// NotificationRepository implements the domain.repository.NotificationRepository interface
// using PostgreSQL as a backend.
type NotificationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewNotificationRepository creates a new instance of the NotificationRepository
func NewNotificationRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *NotificationRepository {
	return &NotificationRepository{
		pool:   pool,
		logger: logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// Save persists a new notification together with one delivery row per
// requested channel, all in a single transaction.
func (r *NotificationRepository) Save(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Err(err).Msg("cannot begin transaction")
		return nil, fmt.Errorf("postgres: Begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createNotificationSQL,
		pgtype.UUID{Bytes: n.ID, Valid: true},
		n.Recipient,
		n.Message,
		channelsToText(n.Channels),
		string(n.Status),
		int16(n.Attempts),
		toTextPtr(n.AuthorID),
		pgtype.Timestamptz{Time: n.ScheduledAt, Valid: true},
		pgtype.Timestamptz{Time: n.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: n.UpdatedAt, Valid: true},
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Msg("cannot create notification")
		return nil, fmt.Errorf("postgres: CreateNotification failed: %w", err)
	}

	batch := &pgx.Batch{}
	for _, d := range n.Deliveries {
		batch.Queue(createDeliverySQL,
			pgtype.UUID{Bytes: d.NotificationID, Valid: true},
			string(d.Channel),
			string(d.Status),
			int16(d.Attempts),
			d.LastError,
			pgtype.Timestamptz{Time: d.UpdatedAt, Valid: true},
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range n.Deliveries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			r.logger.Err(err).Stringer("id", n.ID).Msg("cannot create delivery rows")
			return nil, fmt.Errorf("postgres: CreateDelivery failed: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("postgres: CreateDelivery batch close failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Err(err).Stringer("id", n.ID).Msg("cannot commit notification")
		return nil, fmt.Errorf("postgres: Commit failed: %w", err)
	}

	return n, nil
}

// GetByID retrieves a notification by its unique ID, deliveries included.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	pgUUID := pgtype.UUID{Bytes: id, Valid: true}

	n, err := scanNotification(r.pool.QueryRow(ctx, getNotificationSQL, pgUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Stringer("id", id).Msg("notification not found by id")
			return nil, repo.ErrNotFound
		}
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot get notification")
		return nil, fmt.Errorf("postgres: GetNotificationByID failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, listDeliveriesSQL, pgUUID)
	if err != nil {
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot list deliveries")
		return nil, fmt.Errorf("postgres: ListDeliveries failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: ListDeliveries scan failed: %w", err)
		}
		n.Deliveries = append(n.Deliveries, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: ListDeliveries rows failed: %w", err)
	}

	return n, nil
}

// Update updates the mutable fields of a notification.
func (r *NotificationRepository) Update(ctx context.Context, n *model.Notification) error {
	var sentAt pgtype.Timestamptz
	if n.SentAt != nil {
		sentAt = pgtype.Timestamptz{Time: *n.SentAt, Valid: true}
	}

	var updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, updateNotificationSQL,
		pgtype.UUID{Bytes: n.ID, Valid: true},
		string(n.Status),
		int16(n.Attempts),
		channelsToText(n.Channels),
		sentAt,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Stringer("id", n.ID).Msg("tried to update non-existent notification")
			return repo.ErrNotFound
		}
		r.logger.Err(err).Stringer("id", n.ID).Msg("cannot update notification")
		return fmt.Errorf("postgres: UpdateNotification failed: %w", err)
	}

	n.UpdatedAt = updatedAt.Time
	return nil
}

// UpdateDelivery updates the per-channel outcome row of a notification.
func (r *NotificationRepository) UpdateDelivery(ctx context.Context, d *model.Delivery) error {
	var updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, updateDeliverySQL,
		pgtype.UUID{Bytes: d.NotificationID, Valid: true},
		string(d.Channel),
		string(d.Status),
		int16(d.Attempts),
		d.LastError,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().
				Stringer("id", d.NotificationID).
				Str("channel", string(d.Channel)).
				Msg("tried to update non-existent delivery")
			return repo.ErrNotFound
		}
		r.logger.Err(err).Stringer("id", d.NotificationID).Msg("cannot update delivery")
		return fmt.Errorf("postgres: UpdateDelivery failed: %w", err)
	}

	d.UpdatedAt = updatedAt.Time
	return nil
}

// Delete performs a "soft delete" on a notification by setting its status to 'cancelled'.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, cancelNotificationSQL, pgtype.UUID{Bytes: id, Valid: true}).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Stringer("id", id).Msg("tried to cancel non-existent notification")
			return repo.ErrNotFound
		}
		r.logger.Err(err).Stringer("id", id).Msg("cannot cancel notification")
		return fmt.Errorf("postgres: CancelNotification failed: %w", err)
	}
	return nil
}

// === Mapper Functions ===

// channelsToText converts the channel set to the TEXT[] representation.
func channelsToText(channels []model.Channel) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, string(ch))
	}
	return out
}

// channelsFromText converts the TEXT[] column back to the channel set.
func channelsFromText(values []string) []model.Channel {
	out := make([]model.Channel, 0, len(values))
	for _, v := range values {
		out = append(out, model.Channel(v))
	}
	return out
}

// toTextPtr maps an optional string to its pgtype representation.
func toTextPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// scanNotification converts a database row to a domain model.
func scanNotification(row pgx.Row) (*model.Notification, error) {
	var (
		id          pgtype.UUID
		channels    []string
		status      string
		attempts    int16
		authorID    pgtype.Text
		scheduledAt pgtype.Timestamptz
		sentAt      pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		n           model.Notification
	)

	err := row.Scan(&id, &n.Recipient, &n.Message, &channels, &status, &attempts,
		&authorID, &scheduledAt, &sentAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	n.ID = id.Bytes
	n.Channels = channelsFromText(channels)
	n.Status = model.Status(status)
	n.Attempts = int(attempts)
	n.ScheduledAt = scheduledAt.Time
	n.CreatedAt = createdAt.Time
	n.UpdatedAt = updatedAt.Time
	if authorID.Valid {
		n.AuthorID = &authorID.String
	}
	if sentAt.Valid {
		n.SentAt = &sentAt.Time
	}
	return &n, nil
}

// scanDelivery converts a database row to a domain delivery.
func scanDelivery(row pgx.Row) (*model.Delivery, error) {
	var (
		id        pgtype.UUID
		channel   string
		status    string
		attempts  int16
		updatedAt pgtype.Timestamptz
		d         model.Delivery
	)

	if err := row.Scan(&id, &channel, &status, &attempts, &d.LastError, &updatedAt); err != nil {
		return nil, err
	}

	d.NotificationID = id.Bytes
	d.Channel = model.Channel(channel)
	d.Status = model.DeliveryStatus(status)
	d.Attempts = int(attempts)
	d.UpdatedAt = updatedAt.Time
	return &d, nil
}
