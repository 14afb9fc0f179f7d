package outbox

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := setupOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          map[string]any{"order_number": "ORD-1"},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var rows []models.OutboxEvent
	err = conn.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = NewRepository(conn).FetchUnpublishedForPublish(tx, 10, 0)
		return err
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	envelope, _, err := ParseEnvelope(rows[0].Payload)
	if err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if envelope.Version != CurrentEnvelopeVersion {
		t.Fatalf("expected current version, got %d", envelope.Version)
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurredAt: %+v", envelope)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()

	for i := 0; i < 2; i++ {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   orderID,
				Data:          map[string]any{"amount": 100},
			})
		})
		if err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}

	var count int64
	if err := conn.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single order_paid row, got %d", count)
	}
}

func TestEmitValidatesEvent(t *testing.T) {
	conn := setupOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)

	cases := map[string]DomainEvent{
		"unknown type":      {EventType: "order_shipped_twice", AggregateID: uuid.New()},
		"missing aggregate": {EventType: enums.EventOrderCreated},
		"wrong aggregate":   {EventType: enums.EventOrderCreated, AggregateType: "user", AggregateID: uuid.New()},
	}
	for name, event := range cases {
		err := conn.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, event)
		})
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	var count int64
	if err := conn.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestEmitDefaultsAggregateType(t *testing.T) {
	conn := setupOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:   enums.EventPaymentFailed,
			AggregateID: orderID,
			Data:        map[string]any{"transaction_status": "expire"},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var row models.OutboxEvent
	if err := conn.First(&row).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if row.AggregateType != enums.AggregateOrder || row.AggregateID != orderID {
		t.Fatalf("unexpected aggregate %s/%s", row.AggregateType, row.AggregateID)
	}
}
