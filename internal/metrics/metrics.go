// Package metrics provides the Prometheus collectors for the notification
// pipeline. A fresh registry is created per instance so tests never collide
// with the global one.
package metrics

import (
	"net/http"
	"time"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// OutcomeSent and OutcomeFailed are the values of the "outcome" label.
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	NotificationsCreated prometheus.Counter
	Deliveries           *prometheus.CounterVec
	DeliveryDuration     *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new instance of Metrics with its own registry and all
// collectors registered on it.
func New() *Metrics {
	m := &Metrics{
		NotificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications accepted via the API.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		DeliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time taken for a single delivery attempt by channel.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"channel"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.NotificationsCreated, m.Deliveries, m.DeliveryDuration)
	return m
}

// NotificationCreated counts one accepted notification.
func (m *Metrics) NotificationCreated() {
	m.NotificationsCreated.Inc()
}

// ObserveDelivery records the outcome and duration of one delivery attempt.
func (m *Metrics) ObserveDelivery(channel model.Channel, err error, duration time.Duration) {
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	m.Deliveries.WithLabelValues(string(channel), outcome).Inc()
	m.DeliveryDuration.WithLabelValues(string(channel)).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exposing this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
