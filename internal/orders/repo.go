package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_history.created_at ASC")
		}).
		Where("id = ? AND business_id = ?", orderID, businessID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindLastOrderNumber returns the highest order number for the prefix, or ""
// when the day has no orders yet.
func (r *repository) FindLastOrderNumber(ctx context.Context, businessID uuid.UUID, prefix string) (string, error) {
	var last string
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("order_number").
		Where("business_id = ? AND order_number LIKE ?", businessID, prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}
	return last, nil
}

// FindPendingBefore returns pending orders created before the cutoff across
// all businesses, oldest first. Used by the stale order expiry job.
func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// DeleteOrder removes the aggregate. Children are deleted explicitly so the
// behavior does not depend on the driver honoring cascade constraints.
func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderStatusHistory{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&models.Order{}).Error
}

func (r *repository) ListOrders(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.DateFrom != nil {
		query = query.Where("order_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("order_date <= ?", *filters.DateTo)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where(
			"order_number LIKE ? OR customer_id IN (SELECT id FROM customers WHERE name LIKE ?)",
			pattern, pattern,
		)
	}

	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Stats(ctx context.Context, businessID uuid.UUID, filters StatsFilters) (*StatsSummary, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{}).Where("business_id = ?", businessID)
		if filters.DateFrom != nil {
			q = q.Where("order_date >= ?", *filters.DateFrom)
		}
		if filters.DateTo != nil {
			q = q.Where("order_date <= ?", *filters.DateTo)
		}
		return q
	}

	type statusRow struct {
		Status enums.OrderStatus
		Count  int64
	}
	var statusRows []statusRow
	if err := base().Select("status, COUNT(*) AS count").Group("status").Scan(&statusRows).Error; err != nil {
		return nil, err
	}

	type paymentRow struct {
		PaymentStatus enums.PaymentStatus
		Count         int64
	}
	var paymentRows []paymentRow
	if err := base().Select("payment_status, COUNT(*) AS count").Group("payment_status").Scan(&paymentRows).Error; err != nil {
		return nil, err
	}

	type revenueRow struct {
		Revenue decimal.Decimal
		Count   int64
	}
	var revenue revenueRow
	err := base().
		Where("status <> ?", enums.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS count").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}

	summary := &StatsSummary{
		TotalRevenue:        revenue.Revenue,
		AverageOrderValue:   decimal.Zero,
		StatusCounts:        make(map[enums.OrderStatus]int64, len(statusRows)),
		PaymentStatusCounts: make(map[enums.PaymentStatus]int64, len(paymentRows)),
	}
	for _, row := range statusRows {
		summary.StatusCounts[row.Status] = row.Count
		summary.TotalOrders += row.Count
	}
	for _, row := range paymentRows {
		summary.PaymentStatusCounts[row.PaymentStatus] = row.Count
	}
	if revenue.Count > 0 {
		summary.AverageOrderValue = revenue.Revenue.
			Div(decimal.NewFromInt(revenue.Count)).
			Round(2)
	}
	return summary, nil
}
