package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox/payloads"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes stock movements and ledger reads. Decrement and Increment
// run inside a caller-owned transaction so order writes and stock writes
// commit or roll back together.
type Service interface {
	Decrement(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.InventoryItem, error)
	Increment(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, businessID, inventoryID uuid.UUID) (*models.InventoryItem, error)
	ListTransactions(ctx context.Context, businessID, inventoryID uuid.UUID, params pagination.Params) (*TransactionList, error)
}

type service struct {
	repo   Repository
	outbox outboxEmitter
}

// NewService wires an inventory service with the required dependencies.
func NewService(repo Repository, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, outbox: emitter}, nil
}

// InsufficientStockDetail is attached to INSUFFICIENT_STOCK errors so the
// caller can see which item fell short and by how much.
type InsufficientStockDetail struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

func (s *service) Decrement(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.InventoryItem, error) {
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	repo := s.repo.WithTx(tx)

	affected, err := repo.DecrementStock(ctx, input.BusinessID, input.InventoryID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	if affected == 0 {
		item, findErr := repo.FindItemForBusiness(ctx, input.BusinessID, input.InventoryID)
		if findErr != nil {
			if findErr == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load inventory item")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(InsufficientStockDetail{
				InventoryID: item.ID,
				Requested:   input.Quantity,
				Available:   item.CurrentQuantity,
			})
	}

	item, err := repo.FindItemForBusiness(ctx, input.BusinessID, input.InventoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}

	if err := s.appendTransaction(ctx, repo, input, -input.Quantity, item.CurrentQuantity); err != nil {
		return nil, err
	}

	if item.IsLowStock() {
		event := outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateInventory,
			AggregateID:   item.ID,
			Version:       1,
			Actor:         buildActor(input),
			Data: payloads.InventoryLowStockEvent{
				InventoryID:       item.ID,
				BusinessID:        item.BusinessID,
				Name:              item.Name,
				CurrentQuantity:   item.CurrentQuantity,
				LowStockThreshold: *item.LowStockThreshold,
			},
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit low stock event")
		}
	}

	return item, nil
}

func (s *service) Increment(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.InventoryItem, error) {
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock increment")
	}

	repo := s.repo.WithTx(tx)

	affected, err := repo.IncrementStock(ctx, input.BusinessID, input.InventoryID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}

	item, err := repo.FindItemForBusiness(ctx, input.BusinessID, input.InventoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}

	if err := s.appendTransaction(ctx, repo, input, input.Quantity, item.CurrentQuantity); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, businessID, inventoryID uuid.UUID) (*models.InventoryItem, error) {
	if businessID == uuid.Nil || inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id and inventory id required")
	}
	item, err := s.repo.FindItemForBusiness(ctx, businessID, inventoryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

func (s *service) ListTransactions(ctx context.Context, businessID, inventoryID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	if businessID == uuid.Nil || inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id and inventory id required")
	}
	if _, err := s.GetItem(ctx, businessID, inventoryID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListTransactions(ctx, businessID, inventoryID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory transactions")
	}

	page, hasMore := pagination.Trim(rows, params.Limit)
	list := &TransactionList{Transactions: make([]TransactionSummary, 0, len(page))}
	for _, row := range page {
		list.Transactions = append(list.Transactions, TransactionSummary{
			ID:                row.ID,
			InventoryID:       row.InventoryID,
			OrderID:           row.OrderID,
			Type:              row.Type,
			QuantityChange:    row.QuantityChange,
			ResultingQuantity: row.ResultingQuantity,
			Note:              row.Note,
			CreatedAt:         row.CreatedAt,
		})
	}
	if hasMore {
		last := page[len(page)-1]
		list.NextCursor = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) appendTransaction(ctx context.Context, repo Repository, input AdjustmentInput, change, resulting int) error {
	txn := &models.InventoryTransaction{
		InventoryID:       input.InventoryID,
		BusinessID:        input.BusinessID,
		OrderID:           input.OrderID,
		Type:              input.Type,
		QuantityChange:    change,
		ResultingQuantity: resulting,
		Note:              input.Note,
		CreatedBy:         input.ActorUserID,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory transaction")
	}
	return nil
}

func validateAdjustment(input AdjustmentInput) error {
	if input.InventoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory id required")
	}
	if input.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	return nil
}

func buildActor(input AdjustmentInput) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:     input.ActorUserID,
		BusinessID: input.BusinessID,
	}
}
