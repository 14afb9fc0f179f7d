package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outbox dispatch results.
const (
	DispatchPublished    = "published"
	DispatchRetried      = "retried"
	DispatchDeadLettered = "dead_lettered"
)

// OutboxMetrics counts outbox dispatch results per event type.
// A nil *OutboxMetrics is a valid no-op recorder.
type OutboxMetrics struct {
	dispatched *prometheus.CounterVec
	batches    prometheus.Counter
}

// NewOutboxMetrics registers the outbox publisher metrics on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dispatched_total",
		Help: "Outbox events handled by the publisher by event type and result.",
	}, []string{"event_type", "result"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_batches_total",
		Help: "Non-empty outbox batches claimed by the publisher.",
	})
	reg.MustRegister(dispatched, batches)
	return &OutboxMetrics{dispatched: dispatched, batches: batches}
}

// IncDispatched counts one event outcome.
func (m *OutboxMetrics) IncDispatched(eventType, result string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

// IncBatch counts one claimed batch.
func (m *OutboxMetrics) IncBatch() {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Inc()
}
