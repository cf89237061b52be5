package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem holds the live stock level for one tracked item. The quantity
// is only ever changed through guarded UPDATEs paired with a ledger row, so
// replaying inventory_transactions always reproduces current_quantity.
type InventoryItem struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	BusinessID        uuid.UUID        `gorm:"column:business_id;type:uuid;not null;index"`
	ProductID         *uuid.UUID       `gorm:"column:product_id;type:uuid"`
	Name              string           `gorm:"column:name;not null"`
	SKU               *string          `gorm:"column:sku"`
	CurrentQuantity   int              `gorm:"column:current_quantity;not null;default:0"`
	UnitOfMeasure     string           `gorm:"column:unit_of_measure;type:text;not null;default:'unit'"`
	CostPerUnit       *decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(12,2)"`
	LowStockThreshold *int             `gorm:"column:low_stock_threshold"`
	ReorderPoint      *int             `gorm:"column:reorder_point"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the item has fallen to or below its threshold.
// Items without a threshold never report low.
func (i *InventoryItem) IsLowStock() bool {
	return i.LowStockThreshold != nil && i.CurrentQuantity <= *i.LowStockThreshold
}
