package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// OrderCreatedEvent signals a newly committed order with its reserved stock.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	BusinessID  uuid.UUID         `json:"business_id"`
	CustomerID  *uuid.UUID        `json:"customer_id,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every accepted status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	BusinessID  uuid.UUID         `json:"business_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderDeletedEvent reports a removed order and whether its stock was returned.
type OrderDeletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BusinessID  uuid.UUID `json:"business_id"`
	Restocked   bool      `json:"restocked"`
	DeletedAt   time.Time `json:"deleted_at"`
}

// InventoryLowStockEvent tells downstream systems an item crossed its
// low-stock threshold.
type InventoryLowStockEvent struct {
	InventoryID       uuid.UUID `json:"inventory_id"`
	BusinessID        uuid.UUID `json:"business_id"`
	Name              string    `json:"name"`
	CurrentQuantity   int       `json:"current_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
}
