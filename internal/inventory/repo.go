package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItemForBusiness(ctx context.Context, businessID, inventoryID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND business_id = ?", inventoryID, businessID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DecrementStock applies a guarded decrement. The WHERE clause makes the
// check and the write a single statement, so concurrent orders cannot both
// pass a stale read and drive the quantity negative. The business filter
// keeps one tenant from touching another tenant's stock. A zero row count
// means the item is missing, foreign, or short on stock.
func (r *repository) DecrementStock(ctx context.Context, businessID, inventoryID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET current_quantity = current_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND business_id = ? AND current_quantity >= ?
	`, qty, inventoryID, businessID, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) IncrementStock(ctx context.Context, businessID, inventoryID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET current_quantity = current_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND business_id = ?
	`, qty, inventoryID, businessID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, businessID, inventoryID uuid.UUID, params pagination.Params) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("inventory_id = ? AND business_id = ?", inventoryID, businessID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.InventoryTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
