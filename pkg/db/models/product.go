package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Order items snapshot its name at creation time
// instead of joining back, so later catalog edits never rewrite history.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BusinessID  uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	SKU         *string         `gorm:"column:sku"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	InventoryID *uuid.UUID      `gorm:"column:inventory_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
