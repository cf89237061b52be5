package orders

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biztrackhq/biztrack-backend/api/middleware"
	internalorders "github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/types"
)

type orderItemRequest struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	InventoryID *uuid.UUID      `json:"inventory_id,omitempty"`
	ProductName string          `json:"product_name" validate:"required,max=255"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TotalAmount     *decimal.Decimal   `json:"total_amount,omitempty"`
	PaymentStatus   *string            `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid partial paid refunded"`
	Notes           *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryDate    *time.Time         `json:"delivery_date,omitempty"`
	ShippingAddress *types.Address     `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address     `json:"billing_address,omitempty"`
}

type updateOrderRequest struct {
	Status        *string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	StatusNote    *string    `json:"status_note,omitempty" validate:"omitempty,max=2000"`
	PaymentStatus *string    `json:"payment_status,omitempty" validate:"omitempty,oneof=unpaid partial paid refunded"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
}

type actor struct {
	userID     uuid.UUID
	businessID uuid.UUID
	role       string
}

// actorFromContext recovers the identity the auth middleware injected.
func actorFromContext(r *http.Request) (actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	businessID, err := uuid.Parse(middleware.BusinessIDFromContext(r.Context()))
	if err != nil {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "business context missing")
	}
	return actor{
		userID:     userID,
		businessID: businessID,
		role:       middleware.RoleFromContext(r.Context()),
	}, nil
}

func (req createOrderRequest) toInput(who actor) (internalorders.CreateOrderInput, error) {
	input := internalorders.CreateOrderInput{
		BusinessID:      who.businessID,
		CustomerID:      req.CustomerID,
		TaxAmount:       req.TaxAmount,
		DiscountAmount:  req.DiscountAmount,
		DeclaredTotal:   req.TotalAmount,
		Notes:           req.Notes,
		DeliveryDate:    req.DeliveryDate,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		ActorUserID:     who.userID,
		ActorRole:       who.role,
	}
	if req.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = &status
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, internalorders.CreateOrderItemInput{
			ProductID:   item.ProductID,
			InventoryID: item.InventoryID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return input, nil
}

func (req updateOrderRequest) toInput(who actor, orderID uuid.UUID) (internalorders.UpdateOrderInput, error) {
	input := internalorders.UpdateOrderInput{
		BusinessID:   who.businessID,
		OrderID:      orderID,
		StatusNote:   req.StatusNote,
		Notes:        req.Notes,
		DeliveryDate: req.DeliveryDate,
		ActorUserID:  who.userID,
		ActorRole:    who.role,
	}
	if req.Status != nil {
		status, err := enums.ParseOrderStatus(*req.Status)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		input.Status = &status
	}
	if req.PaymentStatus != nil {
		status, err := enums.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = &status
	}
	return input, nil
}
