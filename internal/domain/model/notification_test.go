package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	t.Run("known channels", func(t *testing.T) {
		for _, ch := range AllChannels() {
			parsed, err := ParseChannel(string(ch))
			require.NoError(t, err)
			assert.Equal(t, ch, parsed)
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := ParseChannel("pigeon")
		assert.ErrorIs(t, err, ErrUnknownChannel)
	})
}

func TestNewNotification(t *testing.T) {
	t.Run("builds one pending delivery per channel", func(t *testing.T) {
		channels := []Channel{ChannelEmail, ChannelSMS}
		n := NewNotification("user@example.com", "hello", channels, time.Time{}, nil)

		assert.Equal(t, StatusScheduled, n.Status)
		assert.Equal(t, channels, n.Channels)
		require.Len(t, n.Deliveries, 2)
		for i, d := range n.Deliveries {
			assert.Equal(t, n.ID, d.NotificationID)
			assert.Equal(t, channels[i], d.Channel)
			assert.Equal(t, DeliveryPending, d.Status)
			assert.Zero(t, d.Attempts)
		}
	})

	t.Run("zero scheduledAt means now", func(t *testing.T) {
		n := NewNotification("user@example.com", "hello", AllChannels(), time.Time{}, nil)
		assert.WithinDuration(t, time.Now().UTC(), n.ScheduledAt, time.Second)
	})

	t.Run("explicit scheduledAt is kept", func(t *testing.T) {
		at := time.Now().UTC().Add(time.Hour)
		n := NewNotification("user@example.com", "hello", AllChannels(), at, nil)
		assert.Equal(t, at, n.ScheduledAt)
	})
}

func TestStatusFromDeliveries(t *testing.T) {
	tests := []struct {
		name       string
		deliveries []Delivery
		want       Status
	}{
		{
			name:       "no deliveries means nothing to do",
			deliveries: nil,
			want:       StatusSent,
		},
		{
			name: "anything pending keeps it scheduled",
			deliveries: []Delivery{
				{Channel: ChannelEmail, Status: DeliverySent},
				{Channel: ChannelSMS, Status: DeliveryPending},
			},
			want: StatusScheduled,
		},
		{
			name: "all sent",
			deliveries: []Delivery{
				{Channel: ChannelEmail, Status: DeliverySent},
				{Channel: ChannelSMS, Status: DeliverySent},
			},
			want: StatusSent,
		},
		{
			name: "all failed",
			deliveries: []Delivery{
				{Channel: ChannelEmail, Status: DeliveryFailed},
				{Channel: ChannelSMS, Status: DeliveryFailed},
			},
			want: StatusFailed,
		},
		{
			name: "mixed outcome is partial",
			deliveries: []Delivery{
				{Channel: ChannelEmail, Status: DeliverySent},
				{Channel: ChannelSMS, Status: DeliveryFailed},
			},
			want: StatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromDeliveries(tt.deliveries))
		})
	}
}
