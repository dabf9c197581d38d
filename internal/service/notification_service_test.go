package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	repo "github.com/ilindan-dev/fanout-notifier/internal/domain/repository"
	"github.com/ilindan-dev/fanout-notifier/internal/metrics"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Save(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, n)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return n, nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) Update(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) UpdateDelivery(ctx context.Context, d *model.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockNotificationQueue struct {
	mock.Mock
}

func (m *mockNotificationQueue) Publish(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationQueue) PublishRetry(ctx context.Context, n *model.Notification, retryDelay time.Duration) error {
	return m.Called(ctx, n, retryDelay).Error(0)
}

func newTestService(repoMock *mockNotificationRepo, queueMock *mockNotificationQueue) (*NotificationService, *metrics.Metrics) {
	m := metrics.New()
	logger := zerolog.Nop()
	return NewNotificationService(repoMock, queueMock, m, &logger), m
}

func TestCreateNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit channels", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, m := newTestService(repoMock, queueMock)

		repoMock.On("Save", mock.Anything, mock.Anything).Return(nil, nil)
		queueMock.On("Publish", mock.Anything, mock.Anything).Return(nil)

		n, err := svc.CreateNotification(ctx, "user@example.com", "hello", []string{"email", "sms"}, time.Time{}, nil)
		require.NoError(t, err)

		assert.Equal(t, []model.Channel{model.ChannelEmail, model.ChannelSMS}, n.Channels)
		assert.Equal(t, model.StatusScheduled, n.Status)
		assert.Len(t, n.Deliveries, 2)
		for _, d := range n.Deliveries {
			assert.Equal(t, model.DeliveryPending, d.Status)
		}
		assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsCreated))
		repoMock.AssertExpectations(t)
		queueMock.AssertExpectations(t)
	})

	t.Run("empty channel list fans out everywhere", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		repoMock.On("Save", mock.Anything, mock.Anything).Return(nil, nil)
		queueMock.On("Publish", mock.Anything, mock.Anything).Return(nil)

		n, err := svc.CreateNotification(ctx, "user@example.com", "hello", nil, time.Time{}, nil)
		require.NoError(t, err)
		assert.Equal(t, model.AllChannels(), n.Channels)
	})

	t.Run("duplicate channel names are collapsed", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		repoMock.On("Save", mock.Anything, mock.Anything).Return(nil, nil)
		queueMock.On("Publish", mock.Anything, mock.Anything).Return(nil)

		n, err := svc.CreateNotification(ctx, "user@example.com", "hello", []string{"sms", "email", "sms"}, time.Time{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []model.Channel{model.ChannelSMS, model.ChannelEmail}, n.Channels)
		assert.Len(t, n.Deliveries, 2)
	})

	t.Run("unknown channel rejected before save", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, m := newTestService(repoMock, queueMock)

		_, err := svc.CreateNotification(ctx, "user@example.com", "hello", []string{"pigeon"}, time.Time{}, nil)
		assert.ErrorIs(t, err, model.ErrUnknownChannel)
		assert.Equal(t, float64(0), testutil.ToFloat64(m.NotificationsCreated))
		repoMock.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save failure is not published", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		saveErr := errors.New("connection reset")
		repoMock.On("Save", mock.Anything, mock.Anything).Return(nil, saveErr)

		_, err := svc.CreateNotification(ctx, "user@example.com", "hello", nil, time.Time{}, nil)
		assert.ErrorIs(t, err, saveErr)
		queueMock.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure surfaces after save", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, m := newTestService(repoMock, queueMock)

		pubErr := errors.New("broker unavailable")
		repoMock.On("Save", mock.Anything, mock.Anything).Return(nil, nil)
		queueMock.On("Publish", mock.Anything, mock.Anything).Return(pubErr)

		_, err := svc.CreateNotification(ctx, "user@example.com", "hello", nil, time.Time{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, pubErr)
		assert.Contains(t, err.Error(), "failed to schedule notification")
		assert.Equal(t, float64(0), testutil.ToFloat64(m.NotificationsCreated))
	})
}

func TestGetNotificationByID(t *testing.T) {
	ctx := context.Background()
	repoMock := new(mockNotificationRepo)
	queueMock := new(mockNotificationQueue)
	svc, _ := newTestService(repoMock, queueMock)

	id := uuid.New()
	want := &model.Notification{ID: id, Status: model.StatusSent}
	repoMock.On("GetByID", mock.Anything, id).Return(want, nil)

	got, err := svc.GetNotificationByID(ctx, id)
	require.NoError(t, err)
	assert.Same(t, want, got)

	missing := uuid.New()
	repoMock.On("GetByID", mock.Anything, missing).Return(nil, repo.ErrNotFound)
	_, err = svc.GetNotificationByID(ctx, missing)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRecordDelivery(t *testing.T) {
	ctx := context.Background()
	repoMock := new(mockNotificationRepo)
	queueMock := new(mockNotificationQueue)
	svc, _ := newTestService(repoMock, queueMock)

	d := &model.Delivery{NotificationID: uuid.New(), Channel: model.ChannelSMS, Status: model.DeliverySent}
	repoMock.On("UpdateDelivery", mock.Anything, d).Return(nil)

	require.NoError(t, svc.RecordDelivery(ctx, d))
	repoMock.AssertExpectations(t)
}

func TestCancelNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled is cancelled", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		id := uuid.New()
		repoMock.On("GetByID", mock.Anything, id).Return(&model.Notification{ID: id, Status: model.StatusScheduled}, nil)
		repoMock.On("Delete", mock.Anything, id).Return(nil)

		require.NoError(t, svc.CancelNotification(ctx, id))
		repoMock.AssertExpectations(t)
	})

	t.Run("already sent cannot be cancelled", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		id := uuid.New()
		repoMock.On("GetByID", mock.Anything, id).Return(&model.Notification{ID: id, Status: model.StatusSent}, nil)

		err := svc.CancelNotification(ctx, id)
		assert.ErrorIs(t, err, ErrNotCancellable)
		repoMock.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unknown id", func(t *testing.T) {
		repoMock := new(mockNotificationRepo)
		queueMock := new(mockNotificationQueue)
		svc, _ := newTestService(repoMock, queueMock)

		id := uuid.New()
		repoMock.On("GetByID", mock.Anything, id).Return(nil, repo.ErrNotFound)

		assert.ErrorIs(t, svc.CancelNotification(ctx, id), repo.ErrNotFound)
	})
}
