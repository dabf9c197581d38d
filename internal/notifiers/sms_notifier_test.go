package notifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ilindan-dev/fanout-notifier/internal/config"
	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSMSTestNotifier(url string) *SMSNotifier {
	logger := zerolog.Nop()
	return NewSMSNotifier(config.SMSConfig{
		URL:    url,
		APIKey: "secret",
		From:   "fanout",
	}, &logger)
}

func TestSMSNotifierSendsGatewayRequest(t *testing.T) {
	var got smsRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := newSMSTestNotifier(srv.URL)
	err := n.Notify(context.Background(), "+15551234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, smsRequest{From: "fanout", To: "+15551234567", Body: "hello"}, got)
}

func TestSMSNotifierInvalidRecipient(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	n := newSMSTestNotifier(srv.URL)
	err := n.Notify(context.Background(), "not-a-number", "hello")

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.False(t, Retryable(err))
	assert.Zero(t, requests, "an invalid recipient must never reach the gateway")
}

func TestSMSNotifierGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown sender id", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := newSMSTestNotifier(srv.URL)
	err := n.Notify(context.Background(), "+15551234567", "hello")

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.ChannelSMS, derr.Channel)
	assert.False(t, derr.Retryable, "a 4xx rejection is permanent")
	assert.Contains(t, derr.Error(), "unknown sender id")
}

func TestSMSNotifierGatewayOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := newSMSTestNotifier(srv.URL)
	err := n.Notify(context.Background(), "+15551234567", "hello")

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.True(t, derr.Retryable, "a 5xx should be retried")
}

func TestSMSNotifierUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	n := newSMSTestNotifier(srv.URL)
	err := n.Notify(context.Background(), "+15551234567", "hello")

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.True(t, derr.Retryable)
}

func TestSMSNotifierChannel(t *testing.T) {
	n := newSMSTestNotifier("http://localhost")
	assert.Equal(t, model.ChannelSMS, n.Channel())
}
