package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

// Repository manages persistence for inventory items and their ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemForBusiness(ctx context.Context, businessID, inventoryID uuid.UUID) (*models.InventoryItem, error)
	DecrementStock(ctx context.Context, businessID, inventoryID uuid.UUID, qty int) (int64, error)
	IncrementStock(ctx context.Context, businessID, inventoryID uuid.UUID, qty int) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, businessID, inventoryID uuid.UUID, params pagination.Params) ([]models.InventoryTransaction, error)
}
