package notifiers

import (
	"context"
	"time"

	"github.com/ilindan-dev/fanout-notifier/internal/domain/model"
	"github.com/ilindan-dev/fanout-notifier/internal/metrics"
	"github.com/rs/zerolog"
)

// Sender is the composite delivery surface the worker depends on.
type Sender interface {
	// Channels returns the channels covered by the injected notifiers.
	Channels() []model.Channel
	// Send delivers through every injected notifier.
	Send(ctx context.Context, recipient, message string) model.Report
	// SendTo delivers through the notifiers covering the given channels.
	SendTo(ctx context.Context, channels []model.Channel, recipient, message string) model.Report
}

// Ensure Fanout implements the interface
var _ Sender = (*Fanout)(nil)

// Fanout is a composite that delivers one message through every injected
// notifier. It depends only on the Notifier interface, so swapping or adding
// channel implementations never touches this code; the composition root
// decides the set and the order.
type Fanout struct {
	notifiers []Notifier
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewFanout creates a new Fanout over the given notifiers. The slice order is
// preserved: deliveries happen and are reported in injection order.
func NewFanout(notifiers []Notifier, m *metrics.Metrics, logger *zerolog.Logger) *Fanout {
	return &Fanout{
		notifiers: notifiers,
		metrics:   m,
		logger:    logger.With().Str("component", "fanout").Logger(),
	}
}

// Channels returns the channels covered by the injected notifiers,
// in injection order.
func (f *Fanout) Channels() []model.Channel {
	channels := make([]model.Channel, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		channels = append(channels, n.Channel())
	}
	return channels
}

// Send delivers the message to the recipient through every injected notifier.
// A failing notifier never stops the rest: each one is invoked exactly once
// and contributes exactly one entry to the report. With no notifiers injected
// the call succeeds and the report is empty.
func (f *Fanout) Send(ctx context.Context, recipient, message string) model.Report {
	return f.dispatch(ctx, f.notifiers, recipient, message)
}

// SendTo behaves like Send but only uses the notifiers whose channel is in
// the given set. Injection order still decides the delivery order.
func (f *Fanout) SendTo(ctx context.Context, channels []model.Channel, recipient, message string) model.Report {
	wanted := make(map[model.Channel]bool, len(channels))
	for _, ch := range channels {
		wanted[ch] = true
	}

	selected := make([]Notifier, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		if wanted[n.Channel()] {
			selected = append(selected, n)
		}
	}

	return f.dispatch(ctx, selected, recipient, message)
}

func (f *Fanout) dispatch(ctx context.Context, notifiers []Notifier, recipient, message string) model.Report {
	report := model.Report{
		Recipient: recipient,
		Results:   make([]model.DeliveryResult, 0, len(notifiers)),
	}

	for _, n := range notifiers {
		start := time.Now()
		err := n.Notify(ctx, recipient, message)
		duration := time.Since(start)

		report.Results = append(report.Results, model.DeliveryResult{
			Channel:  n.Channel(),
			Err:      err,
			Duration: duration,
		})
		f.metrics.ObserveDelivery(n.Channel(), err, duration)
	}

	if failed := report.Failed(); len(failed) > 0 {
		f.logger.Warn().
			Str("recipient", recipient).
			Int("total", len(report.Results)).
			Int("failed", len(failed)).
			Msg("fanout finished with failures")
	} else {
		f.logger.Info().
			Str("recipient", recipient).
			Int("total", len(report.Results)).
			Msg("fanout finished")
	}

	return report
}
