package events

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records event bus activity. It is a passive collector: nothing
// here affects dispatch.
type Metrics struct {
	eventsReceived  *prometheus.CounterVec
	eventsProcessed *prometheus.HistogramVec
	eventsTimeout   *prometheus.CounterVec
	handlerSuccess  *prometheus.CounterVec
	handlerFailure  *prometheus.CounterVec
}

// NewMetrics creates the bus metric series and registers them on the given
// registerer. Tests pass their own prometheus.NewRegistry to avoid
// duplicate-registration panics on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nimbus_events_received_total",
			Help: "Total number of events received",
		}, []string{"event_type"}),
		eventsProcessed: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nimbus_events_processing_duration_seconds",
			Help:    "Time taken to process events",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		eventsTimeout: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nimbus_events_timeout_total",
			Help: "Total number of events that timed out",
		}, []string{"event_type"}),
		handlerSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nimbus_handler_success_total",
			Help: "Total number of successful handler executions",
		}, []string{"handler"}),
		handlerFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nimbus_handler_failure_total",
			Help: "Total number of failed handler executions",
		}, []string{"handler"}),
	}
}

// EventReceived counts one dequeued envelope.
func (m *Metrics) EventReceived(eventType EventType) {
	m.eventsReceived.WithLabelValues(string(eventType)).Inc()
}

// EventProcessed records the full fan-out-and-wait span for one envelope.
func (m *Metrics) EventProcessed(eventType EventType, duration time.Duration) {
	m.eventsProcessed.WithLabelValues(string(eventType)).Observe(duration.Seconds())
}

// EventTimeout counts one envelope whose fan-out hit the dispatch deadline.
// The timeout path records no duration sample.
func (m *Metrics) EventTimeout(eventType EventType) {
	m.eventsTimeout.WithLabelValues(string(eventType)).Inc()
}

// HandlerSuccess counts one successful delivery.
func (m *Metrics) HandlerSuccess(handler string) {
	m.handlerSuccess.WithLabelValues(handler).Inc()
}

// HandlerFailure counts one failed delivery (error return or panic).
func (m *Metrics) HandlerFailure(handler string) {
	m.handlerFailure.WithLabelValues(handler).Inc()
}
