package packetbus

import (
	"time"

	"github.com/rs/zerolog"
)

// Tracer receives structured routing events. It is observability only: the
// bus never takes a control decision based on a tracer, and routing-layer
// failures (bad scheme, no subscriber) are visible nowhere else.
type Tracer interface {
	// Bound is called when a (host, port) key gains a subscriber.
	Bound(key string)
	// Routed is called after a packet is fanned out to a key's subscribers.
	Routed(key string, verb string)
	// Dropped is called when the Router discards a packet.
	Dropped(key string, reason DropReason)
	// RequestSent is called when a coordinator submits a request.
	RequestSent(verb string, address string, timeout time.Duration)
	// ResponseReceived is called when a request resolves with a response.
	ResponseReceived(success bool)
}

type nopTracer struct{}

func (nopTracer) Bound(string)                              {}
func (nopTracer) Routed(string, string)                     {}
func (nopTracer) Dropped(string, DropReason)                {}
func (nopTracer) RequestSent(string, string, time.Duration) {}
func (nopTracer) ResponseReceived(bool)                     {}

// NopTracer returns a Tracer that discards every event. It is the default.
func NopTracer() Tracer { return nopTracer{} }

type logTracer struct {
	logger zerolog.Logger
}

// LogTracer returns a Tracer that logs every event through the given
// zerolog logger.
func LogTracer(logger zerolog.Logger) Tracer {
	return &logTracer{logger: logger}
}

func (t *logTracer) Bound(key string) {
	t.logger.Info().Str("key", key).Msg("bus_bound")
}

func (t *logTracer) Routed(key string, verb string) {
	t.logger.Debug().Str("key", key).Str("verb", verb).Msg("bus_routed")
}

func (t *logTracer) Dropped(key string, reason DropReason) {
	t.logger.Warn().Str("key", key).Str("reason", reason.String()).Msg("bus_dropped")
}

func (t *logTracer) RequestSent(verb string, address string, timeout time.Duration) {
	t.logger.Debug().Str("verb", verb).Str("address", address).Dur("timeout", timeout).Msg("bus_request_sent")
}

func (t *logTracer) ResponseReceived(success bool) {
	t.logger.Debug().Bool("success", success).Msg("bus_response_received")
}

type multiTracer []Tracer

// MultiTracer fans each event out to every given tracer, in order.
func MultiTracer(tracers ...Tracer) Tracer {
	return multiTracer(tracers)
}

func (m multiTracer) Bound(key string) {
	for _, t := range m {
		t.Bound(key)
	}
}

func (m multiTracer) Routed(key string, verb string) {
	for _, t := range m {
		t.Routed(key, verb)
	}
}

func (m multiTracer) Dropped(key string, reason DropReason) {
	for _, t := range m {
		t.Dropped(key, reason)
	}
}

func (m multiTracer) RequestSent(verb string, address string, timeout time.Duration) {
	for _, t := range m {
		t.RequestSent(verb, address, timeout)
	}
}

func (m multiTracer) ResponseReceived(success bool) {
	for _, t := range m {
		t.ResponseReceived(success)
	}
}
