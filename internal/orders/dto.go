package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/types"
)

// CreateOrderItemInput is one requested line. InventoryID links the line to a
// tracked stock record; lines without it never touch inventory.
type CreateOrderItemInput struct {
	ProductID   *uuid.UUID
	InventoryID *uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderInput carries everything the create unit of work needs.
// DeclaredTotal is optional; when present it must reconcile against
// subtotal - discount + tax.
type CreateOrderInput struct {
	BusinessID      uuid.UUID
	CustomerID      *uuid.UUID
	Items           []CreateOrderItemInput
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	DeclaredTotal   *decimal.Decimal
	PaymentStatus   *enums.PaymentStatus
	Notes           *string
	DeliveryDate    *time.Time
	ShippingAddress *types.Address
	BillingAddress  *types.Address
	ActorUserID     uuid.UUID
	ActorRole       string
}

// UpdateOrderInput carries a partial update. Nil fields are left untouched.
type UpdateOrderInput struct {
	BusinessID    uuid.UUID
	OrderID       uuid.UUID
	Status        *enums.OrderStatus
	StatusNote    *string
	PaymentStatus *enums.PaymentStatus
	Notes         *string
	DeliveryDate  *time.Time
	ActorUserID   uuid.UUID
	ActorRole     string
}

// DeleteOrderInput identifies the order to remove and who asked.
type DeleteOrderInput struct {
	BusinessID  uuid.UUID
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// OrderFilters describe the inputs supported by the orders list.
type OrderFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CustomerID    *uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
	Query         string
}

// StatsFilters restrict the stats aggregation to a date range.
type StatsFilters struct {
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderItemDetail is one persisted line as exposed by the API.
type OrderItemDetail struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	InventoryID *uuid.UUID      `json:"inventory_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// StatusHistoryEntry is one audit row on the order detail.
type StatusHistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	ChangedBy uuid.UUID         `json:"changed_by"`
	Note      *string           `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderDetail is the hydrated order returned by detail, create, and update.
type OrderDetail struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	BusinessID      uuid.UUID            `json:"business_id"`
	CustomerID      *uuid.UUID           `json:"customer_id,omitempty"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentStatus   enums.PaymentStatus  `json:"payment_status"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	DiscountAmount  decimal.Decimal      `json:"discount_amount"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Notes           *string              `json:"notes,omitempty"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	ShippingAddress *types.Address       `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address       `json:"billing_address,omitempty"`
	OrderDate       time.Time            `json:"order_date"`
	Items           []OrderItemDetail    `json:"items"`
	StatusHistory   []StatusHistoryEntry `json:"status_history"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// LowStockAlert flags an inventory record that crossed its threshold during
// the create unit of work.
type LowStockAlert struct {
	InventoryID       uuid.UUID `json:"inventory_id"`
	Name              string    `json:"name"`
	CurrentQuantity   int       `json:"current_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
}

// CreateOrderResult pairs the hydrated order with any low-stock alerts.
type CreateOrderResult struct {
	Order         *OrderDetail    `json:"order"`
	LowStockItems []LowStockAlert `json:"low_stock_items,omitempty"`
}

// OrderSummary exposes the aggregated fields returned in the list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	ItemCount     int                 `json:"item_count"`
	OrderDate     time.Time           `json:"order_date"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// StatsSummary is the read-only aggregation over a date range.
type StatsSummary struct {
	TotalOrders         int64                         `json:"total_orders"`
	TotalRevenue        decimal.Decimal               `json:"total_revenue"`
	AverageOrderValue   decimal.Decimal               `json:"average_order_value"`
	StatusCounts        map[enums.OrderStatus]int64   `json:"status_counts"`
	PaymentStatusCounts map[enums.PaymentStatus]int64 `json:"payment_status_counts"`
}
