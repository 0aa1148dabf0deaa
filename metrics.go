package packetbus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metricsTracer struct {
	bound     prometheus.Counter
	routed    *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
}

// MetricsTracer returns a Tracer that exports routing counters to the given
// Prometheus registerer. Pass prometheus.DefaultRegisterer to publish on
// the default registry. Compose with LogTracer via MultiTracer.
func MetricsTracer(reg prometheus.Registerer) Tracer {
	factory := promauto.With(reg)
	return &metricsTracer{
		bound: factory.NewCounter(prometheus.CounterOpts{
			Name: "packetbus_binds_total",
			Help: "Subscriptions created through Router.Bind.",
		}),
		routed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packetbus_routed_total",
			Help: "Packets fanned out to subscribers, by verb.",
		}, []string{"verb"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packetbus_dropped_total",
			Help: "Packets dropped by the Router, by reason.",
		}, []string{"reason"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packetbus_requests_total",
			Help: "Requests submitted through a coordinator, by verb.",
		}, []string{"verb"}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packetbus_responses_total",
			Help: "Responses received by a coordinator, by outcome.",
		}, []string{"outcome"}),
	}
}

func (t *metricsTracer) Bound(string) {
	t.bound.Inc()
}

func (t *metricsTracer) Routed(_ string, verb string) {
	t.routed.WithLabelValues(verb).Inc()
}

func (t *metricsTracer) Dropped(_ string, reason DropReason) {
	t.dropped.WithLabelValues(reason.String()).Inc()
}

func (t *metricsTracer) RequestSent(verb string, _ string, _ time.Duration) {
	t.requests.WithLabelValues(verb).Inc()
}

func (t *metricsTracer) ResponseReceived(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	t.responses.WithLabelValues(outcome).Inc()
}
