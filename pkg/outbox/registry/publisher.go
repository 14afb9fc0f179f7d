package registry

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its topic and payload schema.
type EventDescriptor struct {
	EventType enums.OutboxEventType
	Topic     string
	newData   func() any
}

// ResolvedEvent is a validated outbox row ready to publish.
type ResolvedEvent struct {
	Descriptor  EventDescriptor
	Envelope    outbox.PayloadEnvelope
	EventID     uuid.UUID
	AggregateID uuid.UUID
	Payload     any
}

// OrderingKey keeps every message about one order in commit order.
func (r *ResolvedEvent) OrderingKey() string {
	return r.AggregateID.String()
}

// Attributes are the Pub/Sub message attributes consumers filter and dedupe on.
func (r *ResolvedEvent) Attributes() map[string]string {
	return map[string]string{
		"event_id":       r.EventID.String(),
		"event_type":     string(r.Descriptor.EventType),
		"aggregate_type": string(r.Descriptor.EventType.Aggregate()),
		"aggregate_id":   r.AggregateID.String(),
		"occurred_at":    r.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will never publish, however often it is
// retried. The publisher dead-letters it straight away.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err carries a NonRetryableError.
func IsNonRetryable(err error) bool {
	var target NonRetryableError
	return errors.As(err, &target)
}

// NewEventRegistry routes order lifecycle events to the orders topic and
// payment outcomes to the payments topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	if cfg.PaymentsTopic == "" {
		return nil, errors.New("payments topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	reg.register(enums.EventOrderCreated, cfg.OrdersTopic, func() any { return &payloads.OrderCreatedEvent{} })
	reg.register(enums.EventOrderStatusChanged, cfg.OrdersTopic, func() any { return &payloads.OrderStatusChangedEvent{} })
	reg.register(enums.EventOrderPaid, cfg.PaymentsTopic, func() any { return &payloads.OrderPaidEvent{} })
	reg.register(enums.EventPaymentFailed, cfg.PaymentsTopic, func() any { return &payloads.PaymentFailedEvent{} })
	return reg, nil
}

func (r *EventRegistry) register(eventType enums.OutboxEventType, topic string, newData func() any) {
	r.entries[eventType] = EventDescriptor{EventType: eventType, Topic: topic, newData: newData}
}

// Topics lists the distinct topics the registry routes to.
func (r *EventRegistry) Topics() []string {
	seen := make(map[string]struct{}, len(r.entries))
	var topics []string
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	return topics
}

// Resolve validates the row and decodes its typed payload. Every failure is
// non-retryable: the row content will not change between attempts.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if want := event.EventType.Aggregate(); want != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", want, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	envelope, eventID, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}
	payload := desc.newData()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor:  desc,
		Envelope:    envelope,
		EventID:     eventID,
		AggregateID: event.AggregateID,
		Payload:     payload,
	}, nil
}
