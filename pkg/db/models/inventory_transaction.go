package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// InventoryTransaction is one row of the append-only stock ledger. Rows are
// never updated or deleted; corrections are compensating entries.
type InventoryTransaction struct {
	ID                uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	InventoryID       uuid.UUID                      `gorm:"column:inventory_id;type:uuid;not null;index"`
	BusinessID        uuid.UUID                      `gorm:"column:business_id;type:uuid;not null;index"`
	OrderID           *uuid.UUID                     `gorm:"column:order_id;type:uuid;index"`
	Type              enums.InventoryTransactionType `gorm:"column:type;type:text;not null"`
	QuantityChange    int                            `gorm:"column:quantity_change;not null"`
	ResultingQuantity int                            `gorm:"column:resulting_quantity;not null"`
	Note              *string                        `gorm:"column:note"`
	CreatedBy         uuid.UUID                      `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt         time.Time                      `gorm:"column:created_at;autoCreateTime"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
