package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/types"
)

// Order is the aggregate header. Items and status history rows are owned by
// the order and removed with it through the cascade constraints.
type Order struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	BusinessID      uuid.UUID            `gorm:"column:business_id;type:uuid;not null;index:ux_orders_business_order_number,unique;index"`
	CustomerID      *uuid.UUID           `gorm:"column:customer_id;type:uuid;index"`
	OrderNumber     string               `gorm:"column:order_number;not null;index:ux_orders_business_order_number,unique"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal      `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal      `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes           *string              `gorm:"column:notes"`
	DeliveryDate    *time.Time           `gorm:"column:delivery_date"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  *types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json"`
	CreatedBy       uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	OrderDate       time.Time            `gorm:"column:order_date;not null"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	return nil
}
