package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestEmitStagesEnvelopeInTransaction(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	orderID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), BusinessID: uuid.New(), Role: "owner"}

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data:          map[string]any{"order_number": "ORD-20260314-0001"},
			Version:       1,
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var row models.OutboxEvent
	if err := conn.First(&row, "aggregate_id = ?", orderID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if row.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.PublishedAt != nil {
		t.Fatal("new event must start unpublished")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("expected version 1, got %d", envelope.Version)
	}
	if envelope.EventID == "" {
		t.Fatal("expected generated event id")
	}
	if envelope.Actor == nil || envelope.Actor.UserID != actor.UserID {
		t.Fatal("actor not carried through envelope")
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(newTestDB(t)), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitIfNotExistsDeduplicates(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), nil)
	inventoryID := uuid.New()

	emit := func() error {
		return conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateInventory,
				AggregateID:   inventoryID,
				Data:          map[string]any{"current_quantity": 2},
				Version:       1,
			})
		})
	}

	if err := emit(); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	if err := emit(); err != nil {
		t.Fatalf("second emit: %v", err)
	}

	var count int64
	if err := conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", inventoryID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one event, got %d", count)
	}
}

func TestFetchUnpublishedAndMark(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		err := conn.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   ids[i],
				Data:          map[string]any{},
				Version:       1,
			})
		})
		if err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}

	rows, err := repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 unpublished, got %d", len(rows))
	}

	if err := repo.MarkPublished(rows[0].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := repo.MarkFailed(rows[1].ID, context.DeadlineExceeded); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	rows, err = repo.FetchUnpublished(10)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 unpublished after publish, got %d", len(rows))
	}

	var failed models.OutboxEvent
	if err := conn.First(&failed, "attempts > 0").Error; err != nil {
		t.Fatalf("load failed event: %v", err)
	}
	if failed.LastError == nil || *failed.LastError == "" {
		t.Fatal("expected last_error to be recorded")
	}
}
