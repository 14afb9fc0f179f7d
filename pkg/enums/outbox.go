package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderPaid          OutboxEventType = "order_paid"
	EventPaymentFailed      OutboxEventType = "payment_failed"
)

// Aggregate returns the aggregate an event type belongs to, or "" for an
// unknown type.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	switch e {
	case EventOrderCreated, EventOrderStatusChanged, EventOrderPaid, EventPaymentFailed:
		return AggregateOrder
	}
	return ""
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return e.Aggregate() != ""
}

// ParseOutboxEventType converts a raw event_type attribute.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid outbox event type %q", value)
	}
	return e, nil
}
