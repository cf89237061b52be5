package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), emitter)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedItem(t *testing.T, conn *gorm.DB, qty int, threshold *int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		BusinessID:        uuid.New(),
		Name:              "Arabica Beans 1kg",
		CurrentQuantity:   qty,
		UnitOfMeasure:     "bag",
		LowStockThreshold: threshold,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestDecrementReducesStockAndAppendsLedger(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 10, nil)
	orderID := uuid.New()
	actor := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
			InventoryID: item.ID,
			BusinessID:  item.BusinessID,
			OrderID:     &orderID,
			Type:        enums.InventoryTransactionSale,
			Quantity:    4,
			ActorUserID: actor,
		})
		return err
	})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentQuantity != 6 {
		t.Fatalf("expected quantity 6, got %d", reloaded.CurrentQuantity)
	}

	var txn models.InventoryTransaction
	if err := conn.First(&txn, "inventory_id = ?", item.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.QuantityChange != -4 {
		t.Fatalf("expected change -4, got %d", txn.QuantityChange)
	}
	if txn.ResultingQuantity != 6 {
		t.Fatalf("expected resulting quantity 6, got %d", txn.ResultingQuantity)
	}
	if txn.OrderID == nil || *txn.OrderID != orderID {
		t.Fatal("expected order reference on ledger row")
	}
	if txn.Type != enums.InventoryTransactionSale {
		t.Fatalf("unexpected transaction type %s", txn.Type)
	}
}

func TestDecrementInsufficientStockFailsAtomically(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 3, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
			InventoryID: item.ID,
			BusinessID:  item.BusinessID,
			Type:        enums.InventoryTransactionSale,
			Quantity:    5,
			ActorUserID: uuid.New(),
		})
		return err
	})

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	detail, ok := typed.Details().(InsufficientStockDetail)
	if !ok {
		t.Fatalf("expected InsufficientStockDetail, got %T", typed.Details())
	}
	if detail.Requested != 5 || detail.Available != 3 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentQuantity != 3 {
		t.Fatalf("stock must be untouched, got %d", reloaded.CurrentQuantity)
	}

	var count int64
	if err := conn.Model(&models.InventoryTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger row expected on failure, got %d", count)
	}
}

func TestDecrementUnknownItemReturnsNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
			InventoryID: uuid.New(),
			BusinessID:  uuid.New(),
			Type:        enums.InventoryTransactionSale,
			Quantity:    1,
			ActorUserID: uuid.New(),
		})
		return err
	})

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDecrementForeignBusinessItemReturnsNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 10, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
			InventoryID: item.ID,
			BusinessID:  uuid.New(),
			Type:        enums.InventoryTransactionSale,
			Quantity:    3,
			ActorUserID: uuid.New(),
		})
		return err
	})

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for another business's item, got %v", err)
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentQuantity != 10 {
		t.Fatalf("owner stock must be untouched, got %d", reloaded.CurrentQuantity)
	}

	var count int64
	if err := conn.Model(&models.InventoryTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger row expected for a foreign item, got %d", count)
	}
}

func TestIncrementForeignBusinessItemReturnsNotFound(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 4, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Increment(context.Background(), tx, AdjustmentInput{
			InventoryID: item.ID,
			BusinessID:  uuid.New(),
			Type:        enums.InventoryTransactionRestock,
			Quantity:    6,
			ActorUserID: uuid.New(),
		})
		return err
	})

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for another business's item, got %v", err)
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentQuantity != 4 {
		t.Fatalf("owner stock must be untouched, got %d", reloaded.CurrentQuantity)
	}
}

func TestDecrementEmitsLowStockEventOnce(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	threshold := 5
	item := seedItem(t, conn, 7, &threshold)

	decrement := func(qty int) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
				InventoryID: item.ID,
				BusinessID:  item.BusinessID,
				Type:        enums.InventoryTransactionSale,
				Quantity:    qty,
				ActorUserID: uuid.New(),
			})
			return err
		})
	}

	if err := decrement(1); err != nil {
		t.Fatalf("decrement above threshold: %v", err)
	}
	var count int64
	conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventLowStock).Count(&count)
	if count != 0 {
		t.Fatalf("no low stock event expected above threshold, got %d", count)
	}

	if err := decrement(2); err != nil {
		t.Fatalf("decrement across threshold: %v", err)
	}
	if err := decrement(1); err != nil {
		t.Fatalf("decrement below threshold: %v", err)
	}

	conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventLowStock).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one low stock event, got %d", count)
	}
}

func TestIncrementRestocksAndAppendsLedger(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 2, nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Increment(context.Background(), tx, AdjustmentInput{
			InventoryID: item.ID,
			BusinessID:  item.BusinessID,
			Type:        enums.InventoryTransactionRestock,
			Quantity:    8,
			ActorUserID: uuid.New(),
		})
		return err
	})
	if err != nil {
		t.Fatalf("increment: %v", err)
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentQuantity != 10 {
		t.Fatalf("expected quantity 10, got %d", reloaded.CurrentQuantity)
	}

	var txn models.InventoryTransaction
	if err := conn.First(&txn, "inventory_id = ?", item.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.QuantityChange != 8 || txn.ResultingQuantity != 10 {
		t.Fatalf("unexpected ledger row change=%d resulting=%d", txn.QuantityChange, txn.ResultingQuantity)
	}
}

func TestLedgerReplayMatchesCurrentQuantity(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 20, nil)

	moves := []struct {
		incr bool
		qty  int
		typ  enums.InventoryTransactionType
	}{
		{false, 5, enums.InventoryTransactionSale},
		{false, 3, enums.InventoryTransactionSale},
		{true, 10, enums.InventoryTransactionRestock},
		{false, 7, enums.InventoryTransactionSale},
		{true, 2, enums.InventoryTransactionReturn},
	}
	for i, move := range moves {
		err := conn.Transaction(func(tx *gorm.DB) error {
			input := AdjustmentInput{
				InventoryID: item.ID,
				BusinessID:  item.BusinessID,
				Type:        move.typ,
				Quantity:    move.qty,
				ActorUserID: uuid.New(),
			}
			var err error
			if move.incr {
				_, err = svc.Increment(context.Background(), tx, input)
			} else {
				_, err = svc.Decrement(context.Background(), tx, input)
			}
			return err
		})
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	var rows []models.InventoryTransaction
	if err := conn.Order("created_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	replayed := 20
	for _, row := range rows {
		replayed += row.QuantityChange
	}

	var reloaded models.InventoryItem
	if err := conn.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if replayed != reloaded.CurrentQuantity {
		t.Fatalf("ledger replay %d does not match current quantity %d", replayed, reloaded.CurrentQuantity)
	}
}

func TestListTransactionsPaginates(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	item := seedItem(t, conn, 100, nil)

	for i := 0; i < 5; i++ {
		err := conn.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Decrement(context.Background(), tx, AdjustmentInput{
				InventoryID: item.ID,
				BusinessID:  item.BusinessID,
				Type:        enums.InventoryTransactionSale,
				Quantity:    1,
				ActorUserID: uuid.New(),
			})
			return err
		})
		if err != nil {
			t.Fatalf("seed move %d: %v", i, err)
		}
	}

	page, err := svc.ListTransactions(context.Background(), item.BusinessID, item.ID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Transactions) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page.Transactions))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}

	rest, err := svc.ListTransactions(context.Background(), item.BusinessID, item.ID, pagination.Params{Limit: 3, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest.Transactions) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(rest.Transactions))
	}
	if rest.NextCursor != "" {
		t.Fatal("did not expect a third page")
	}

	seen := map[uuid.UUID]bool{}
	for _, txn := range append(page.Transactions, rest.Transactions...) {
		if seen[txn.ID] {
			t.Fatalf("transaction %s returned twice", txn.ID)
		}
		seen[txn.ID] = true
	}
}

func TestListTransactionsUnknownItem(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.ListTransactions(context.Background(), uuid.New(), uuid.New(), pagination.Params{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
