package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of status values an order
// has passed through. The most recent row always matches the order's status.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ChangedBy uuid.UUID         `gorm:"column:changed_by;type:uuid;not null"`
	Note      *string           `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps gorm on the singular table the migrations create.
func (OrderStatusHistory) TableName() string { return "order_status_history" }

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
