package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var errTxRequired = errors.New("transaction required")

// DomainEvent describes a state change to be published after the writing
// transaction commits. AggregateType defaults to the event type's aggregate.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

// Service queues domain events on the caller's transaction.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit stores the event on tx. The row only becomes visible when tx commits,
// so an aborted order never produces an order_created message.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	row, eventID, err := s.build(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert %s event: %w", row.EventType, err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":       eventID,
			"event_type":     row.EventType,
			"aggregate_type": row.AggregateType,
			"aggregate_id":   row.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}

// EmitIfNotExists queues the event unless one of the same type is already
// queued for the aggregate. Used for one-shot events such as order_paid,
// which both the webhook and a status refresh can trigger.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	if event.AggregateType == "" {
		event.AggregateType = event.EventType.Aggregate()
	}
	exists, err := s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = s.Emit(ctx, tx, event)
	if err != nil && dbpkg.IsUniqueViolation(err, "") {
		return nil
	}
	return err
}

func (s *Service) build(event DomainEvent) (models.OutboxEvent, string, error) {
	if !event.EventType.IsValid() {
		return models.OutboxEvent{}, "", fmt.Errorf("unknown event type %q", event.EventType)
	}
	if event.AggregateType == "" {
		event.AggregateType = event.EventType.Aggregate()
	}
	if event.AggregateType != event.EventType.Aggregate() {
		return models.OutboxEvent{}, "", fmt.Errorf("event %s does not belong to aggregate %s", event.EventType, event.AggregateType)
	}
	if event.AggregateID == uuid.Nil {
		return models.OutboxEvent{}, "", fmt.Errorf("event %s has no aggregate id", event.EventType)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, "", fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    uuid.NewString(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       data,
	}
	if envelope.Version == 0 {
		envelope.Version = CurrentEnvelopeVersion
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = s.now().UTC()
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return models.OutboxEvent{}, "", fmt.Errorf("encode envelope: %w", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payload),
	}, envelope.EventID, nil
}
