package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.ObserveCheckout(FlowGuest, OutcomeSuccess, 250*time.Millisecond)
	m.ObserveCheckout(FlowGuest, OutcomeRejected, 10*time.Millisecond)
	m.IncNotification("settlement")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_orders_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "payment_notifications_total", "transaction_status", "settlement"); err != nil {
		t.Fatalf("fetch notifications: %v", err)
	} else if got != 1 {
		t.Fatalf("expected settlement=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "flow", FlowGuest); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilCheckoutMetricsIsNoop(t *testing.T) {
	var m *CheckoutMetrics
	m.ObserveCheckout(FlowAuthenticated, OutcomeFailed, time.Second)
	m.IncNotification("")
	NewCheckoutMetrics(nil).IncNotification("pending")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestOutboxMetricsCountsDispatchResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncBatch()
	m.IncDispatched("order_created", DispatchPublished)
	m.IncDispatched("order_created", DispatchPublished)
	m.IncDispatched("order_paid", DispatchDeadLettered)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_dispatched_total", "result", DispatchPublished); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_dispatched_total", "result", DispatchDeadLettered); err != nil {
		t.Fatalf("fetch dead lettered: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dead_lettered=1, got %f", got)
	}

	var nilMetrics *OutboxMetrics
	nilMetrics.IncBatch()
	nilMetrics.IncDispatched("", "")
}
