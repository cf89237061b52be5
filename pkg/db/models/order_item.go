package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem captures the immutable snapshot of one line within an order.
// There is no update path: items are created with the order and only removed
// by the order's cascading delete.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	InventoryID *uuid.UUID      `gorm:"column:inventory_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
