package outbox

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func seedOutboxRow(t *testing.T, conn *gorm.DB, attempts int, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		CreatedAt:     createdAt,
		AttemptCount:  attempts,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}
	return row
}

func TestFetchUnpublishedForPublishSkipsExhaustedRows(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)
	now := time.Now().UTC()

	older := seedOutboxRow(t, conn, 0, now.Add(-time.Minute))
	newer := seedOutboxRow(t, conn, 2, now)
	seedOutboxRow(t, conn, 5, now.Add(-2*time.Minute))

	var rows []models.OutboxEvent
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(rows))
	}
	if rows[0].ID != older.ID || rows[1].ID != newer.ID {
		t.Fatalf("expected oldest first, got %s then %s", rows[0].ID, rows[1].ID)
	}
}

func TestMarkTxTransitions(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)
	failed := seedOutboxRow(t, conn, 1, time.Now().UTC())
	published := seedOutboxRow(t, conn, 0, time.Now().UTC())
	terminal := seedOutboxRow(t, conn, 0, time.Now().UTC())

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkFailedTx(tx, failed.ID, errors.New("deadline exceeded")); err != nil {
			return err
		}
		if err := repo.MarkPublishedTx(tx, published.ID); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, terminal.ID, errors.New("unsupported"), 10)
	})
	if err != nil {
		t.Fatalf("mark: %v", err)
	}

	var got models.OutboxEvent
	if err := conn.First(&got, "id = ?", failed.ID).Error; err != nil {
		t.Fatalf("load failed row: %v", err)
	}
	if got.AttemptCount != 2 || got.LastError == nil || *got.LastError != "deadline exceeded" {
		t.Fatalf("unexpected failed row: attempts=%d last_error=%v", got.AttemptCount, got.LastError)
	}

	got = models.OutboxEvent{}
	if err := conn.First(&got, "id = ?", published.ID).Error; err != nil {
		t.Fatalf("load published row: %v", err)
	}
	if got.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}

	got = models.OutboxEvent{}
	if err := conn.First(&got, "id = ?", terminal.ID).Error; err != nil {
		t.Fatalf("load terminal row: %v", err)
	}
	if got.AttemptCount != 10 || got.PublishedAt != nil {
		t.Fatalf("unexpected terminal row: attempts=%d published=%v", got.AttemptCount, got.PublishedAt)
	}
}

func TestRepositoryTxMethodsRequireTransaction(t *testing.T) {
	repo := NewRepository(nil)
	if _, err := repo.FetchUnpublishedForPublish(nil, 1, 1); err == nil {
		t.Fatal("expected fetch to require a transaction")
	}
	if err := repo.MarkPublishedTx(nil, uuid.New()); err == nil {
		t.Fatal("expected mark published to require a transaction")
	}
}
