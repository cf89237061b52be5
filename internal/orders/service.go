package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/internal/inventory"
	dbpkg "github.com/biztrackhq/biztrack-backend/pkg/db"
	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox/payloads"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

const orderNumberConstraint = "ux_orders_business_order_number"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// stockAdjuster is the slice of the inventory service the order lifecycle
// needs: transaction-scoped decrements and the compensating increments.
type stockAdjuster interface {
	Decrement(ctx context.Context, tx *gorm.DB, input inventory.AdjustmentInput) (*models.InventoryItem, error)
	Increment(ctx context.Context, tx *gorm.DB, input inventory.AdjustmentInput) (*models.InventoryItem, error)
}

// Service exposes the order lifecycle. Every write runs as one unit of work:
// the order rows, stock movements, history, and outbox events commit together
// or not at all.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	Get(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	Update(ctx context.Context, input UpdateOrderInput) (*OrderDetail, error)
	Delete(ctx context.Context, input DeleteOrderInput) error
	Stats(ctx context.Context, businessID uuid.UUID, filters StatsFilters) (*StatsSummary, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	stock  stockAdjuster
	now    func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, stock stockAdjuster) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: publisher,
		stock:  stock,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	total := subtotal.Sub(input.DiscountAmount).Add(input.TaxAmount)
	if input.DeclaredTotal != nil && !input.DeclaredTotal.Equal(total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total does not reconcile").
			WithDetails(map[string]string{
				"declared_total": input.DeclaredTotal.String(),
				"expected_total": total.String(),
			})
	}
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
	}

	paymentStatus := enums.PaymentStatusUnpaid
	if input.PaymentStatus != nil {
		paymentStatus = *input.PaymentStatus
	}

	var result *CreateOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now().UTC()

		last, err := repo.FindLastOrderNumber(ctx, input.BusinessID, dayPrefix(now))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan order number sequence")
		}
		number, err := nextOrderNumber(last, now)
		if err != nil {
			return err
		}

		order := &models.Order{
			BusinessID:      input.BusinessID,
			CustomerID:      input.CustomerID,
			OrderNumber:     number,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   paymentStatus,
			Subtotal:        subtotal,
			TaxAmount:       input.TaxAmount,
			DiscountAmount:  input.DiscountAmount,
			TotalAmount:     total,
			Notes:           input.Notes,
			DeliveryDate:    input.DeliveryDate,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			CreatedBy:       input.ActorUserID,
			OrderDate:       now,
		}
		for _, item := range input.Items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   item.ProductID,
				InventoryID: item.InventoryID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}

		if err := repo.CreateOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, orderNumberConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already allocated")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		lowStock, err := s.reserveStock(ctx, tx, order, input)
		if err != nil {
			return err
		}

		history := &models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			ChangedBy: input.ActorUserID,
		}
		if err := repo.CreateStatusHistory(ctx, history); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}
		order.StatusHistory = append(order.StatusHistory, *history)

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.BusinessID, input.ActorRole),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BusinessID:  order.BusinessID,
				CustomerID:  order.CustomerID,
				Status:      order.Status,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}

		result = &CreateOrderResult{
			Order:         toDetail(order),
			LowStockItems: lowStock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reserveStock decrements every inventory-linked line. All lines are checked
// even after a shortage so the error lists every under-stocked line, not just
// the first.
func (s *service) reserveStock(ctx context.Context, tx *gorm.DB, order *models.Order, input CreateOrderInput) ([]LowStockAlert, error) {
	var (
		lowStock []LowStockAlert
		short    []inventory.InsufficientStockDetail
	)
	for _, item := range order.Items {
		if item.InventoryID == nil {
			continue
		}
		orderID := order.ID
		stockItem, err := s.stock.Decrement(ctx, tx, inventory.AdjustmentInput{
			InventoryID: *item.InventoryID,
			BusinessID:  order.BusinessID,
			OrderID:     &orderID,
			Type:        enums.InventoryTransactionSale,
			Quantity:    item.Quantity,
			ActorUserID: input.ActorUserID,
		})
		if err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				if detail, ok := typed.Details().(inventory.InsufficientStockDetail); ok {
					short = append(short, detail)
					continue
				}
			}
			return nil, err
		}
		if stockItem.IsLowStock() {
			lowStock = append(lowStock, LowStockAlert{
				InventoryID:       stockItem.ID,
				Name:              stockItem.Name,
				CurrentQuantity:   stockItem.CurrentQuantity,
				LowStockThreshold: *stockItem.LowStockThreshold,
			})
		}
	}
	if len(short) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(short)
	}
	return lowStock, nil
}

func (s *service) Get(ctx context.Context, businessID, orderID uuid.UUID) (*OrderDetail, error) {
	if businessID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id and order id required")
	}
	order, err := s.repo.FindOrder(ctx, businessID, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toDetail(order), nil
}

func (s *service) List(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	rows, err := s.repo.ListOrders(ctx, businessID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page, hasMore := pagination.Trim(rows, params.Limit)
	list := &OrderList{Orders: make([]OrderSummary, 0, len(page))}
	for _, order := range page {
		list.Orders = append(list.Orders, OrderSummary{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerID:    order.CustomerID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			TotalAmount:   order.TotalAmount,
			ItemCount:     len(order.Items),
			OrderDate:     order.OrderDate,
			CreatedAt:     order.CreatedAt,
		})
	}
	if hasMore {
		last := page[len(page)-1]
		list.NextCursor = pagination.Encode(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateOrderInput) (*OrderDetail, error) {
	if input.BusinessID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id and order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.BusinessID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Terminal orders still take payment or note updates, only status
		// moves are closed off. Refunding a cancelled order and marking a
		// delivered order paid both land here.
		statusChange := input.Status != nil && *input.Status != order.Status
		if statusChange && order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
				WithDetails(map[string]any{"status": order.Status})
		}

		updates := map[string]any{}
		if statusChange {
			target := *input.Status
			if !CanTransition(order.Status, target) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
					WithDetails(map[string]any{
						"from":    order.Status,
						"to":      target,
						"allowed": AllowedTargets(order.Status),
					})
			}
			updates["status"] = target
			if target == enums.OrderStatusDelivered {
				updates["delivered_at"] = s.now().UTC()
			}
			if target == enums.OrderStatusCancelled {
				if err := s.restock(ctx, tx, order, input.ActorUserID, "order cancelled"); err != nil {
					return err
				}
			}
		}
		if input.PaymentStatus != nil {
			updates["payment_status"] = *input.PaymentStatus
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.DeliveryDate != nil {
			updates["delivery_date"] = *input.DeliveryDate
		}
		if len(updates) == 0 {
			detail = toDetail(order)
			return nil
		}

		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if statusChange {
			history := &models.OrderStatusHistory{
				OrderID:   order.ID,
				Status:    *input.Status,
				ChangedBy: input.ActorUserID,
				Note:      input.StatusNote,
			}
			if err := repo.CreateStatusHistory(ctx, history); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.BusinessID, input.ActorRole),
				Data: payloads.OrderStatusChangedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					BusinessID:  order.BusinessID,
					FromStatus:  order.Status,
					ToStatus:    *input.Status,
					ChangedAt:   s.now().UTC(),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status changed event")
			}
		}

		reloaded, err := repo.FindOrder(ctx, input.BusinessID, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		detail = toDetail(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) Delete(ctx context.Context, input DeleteOrderInput) error {
	if input.BusinessID == uuid.Nil || input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id and order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.BusinessID, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		deletable := order.Status == enums.OrderStatusPending || order.Status == enums.OrderStatusCancelled
		if !deletable {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted").
				WithDetails(map[string]any{"status": order.Status})
		}

		// Cancelled orders were restocked at cancel time; restocking again
		// here would double-count.
		restocked := false
		if order.Status == enums.OrderStatusPending {
			if err := s.restock(ctx, tx, order, input.ActorUserID, "order deleted"); err != nil {
				return err
			}
			restocked = hasInventoryLines(order)
		}

		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.BusinessID, input.ActorRole),
			Data: payloads.OrderDeletedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				BusinessID:  order.BusinessID,
				Restocked:   restocked,
				DeletedAt:   s.now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order deleted event")
		}
		return nil
	})
}

func (s *service) Stats(ctx context.Context, businessID uuid.UUID, filters StatsFilters) (*StatsSummary, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_from must not be after date_to")
	}
	summary, err := s.repo.Stats(ctx, businessID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate order stats")
	}
	return summary, nil
}

// restock returns every inventory-linked line to stock as a compensating
// adjustment entry.
func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order, actorID uuid.UUID, note string) error {
	for _, item := range order.Items {
		if item.InventoryID == nil {
			continue
		}
		orderID := order.ID
		n := note
		_, err := s.stock.Increment(ctx, tx, inventory.AdjustmentInput{
			InventoryID: *item.InventoryID,
			BusinessID:  order.BusinessID,
			OrderID:     &orderID,
			Type:        enums.InventoryTransactionAdjustment,
			Quantity:    item.Quantity,
			Note:        &n,
			ActorUserID: actorID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func hasInventoryLines(order *models.Order) bool {
	for _, item := range order.Items {
		if item.InventoryID != nil {
			return true
		}
	}
	return false
}

func validateCreate(input CreateOrderInput) error {
	if input.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for i, item := range input.Items {
		if item.ProductName == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product name required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
	}
	if input.TaxAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax amount cannot be negative")
	}
	if input.DiscountAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount amount cannot be negative")
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	return nil
}

func toDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		BusinessID:      order.BusinessID,
		CustomerID:      order.CustomerID,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		Subtotal:        order.Subtotal,
		TaxAmount:       order.TaxAmount,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		Notes:           order.Notes,
		DeliveryDate:    order.DeliveryDate,
		DeliveredAt:     order.DeliveredAt,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		OrderDate:       order.OrderDate,
		Items:           make([]OrderItemDetail, 0, len(order.Items)),
		StatusHistory:   make([]StatusHistoryEntry, 0, len(order.StatusHistory)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, OrderItemDetail{
			ID:          item.ID,
			ProductID:   item.ProductID,
			InventoryID: item.InventoryID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	for _, entry := range order.StatusHistory {
		detail.StatusHistory = append(detail.StatusHistory, StatusHistoryEntry{
			Status:    entry.Status,
			ChangedBy: entry.ChangedBy,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return detail
}

func buildActor(userID, businessID uuid.UUID, role string) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID:     userID,
		BusinessID: businessID,
		Role:       role,
	}
}
