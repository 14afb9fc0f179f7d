package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout flow labels.
const (
	FlowGuest         = "guest"
	FlowAuthenticated = "authenticated"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// CheckoutMetrics records checkout attempts and payment gateway callbacks.
// A nil *CheckoutMetrics is a valid no-op recorder.
type CheckoutMetrics struct {
	duration      *prometheus.HistogramVec
	orders        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Checkout attempts by flow and outcome.",
	}, []string{"flow", "outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Payment gateway notifications by transaction status.",
	}, []string{"transaction_status"})
	reg.MustRegister(duration, orders, notifications)
	return &CheckoutMetrics{
		duration:      duration,
		orders:        orders,
		notifications: notifications,
	}
}

// ObserveCheckout records one checkout attempt.
func (m *CheckoutMetrics) ObserveCheckout(flow, outcome string, duration time.Duration) {
	if m == nil || m.orders == nil {
		return
	}
	flow = normalizeLabel(flow)
	m.duration.WithLabelValues(flow).Observe(duration.Seconds())
	m.orders.WithLabelValues(flow, normalizeLabel(outcome)).Inc()
}

// IncNotification counts a processed payment notification.
func (m *CheckoutMetrics) IncNotification(transactionStatus string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(transactionStatus)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
