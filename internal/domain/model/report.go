package model

import "time"

// DeliveryResult is the outcome of one Notify call during a fan-out round.
type DeliveryResult struct {
	Channel  Channel
	Err      error // nil means the channel accepted the message.
	Duration time.Duration
}

// OK reports whether this channel delivered.
func (r DeliveryResult) OK() bool {
	return r.Err == nil
}

// Report aggregates the per-channel outcomes of a single fan-out round.
// Results appear in the order the notifiers were injected, one entry per
// notifier that was invoked.
type Report struct {
	Recipient string
	Results   []DeliveryResult
}

// OK reports whether every invoked channel delivered. An empty report is OK:
// fanning out to nobody cannot fail.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Failed returns the results of the channels that did not deliver,
// preserving fan-out order.
func (r Report) Failed() []DeliveryResult {
	var failed []DeliveryResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}
