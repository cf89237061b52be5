package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, businessID, orderID uuid.UUID) (*models.Order, error)
	FindLastOrderNumber(ctx context.Context, businessID uuid.UUID, prefix string) (string, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	ListOrders(ctx context.Context, businessID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, error)
	Stats(ctx context.Context, businessID uuid.UUID, filters StatsFilters) (*StatsSummary, error)
}
