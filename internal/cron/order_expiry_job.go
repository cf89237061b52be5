package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
)

const (
	pendingOrderTTLDays = 10
	expiryBatchLimit    = 200
)

// systemActorID stamps cron-driven status changes in the order history so they
// are distinguishable from user actions.
var systemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type stalePendingReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceller interface {
	Update(ctx context.Context, input orders.UpdateOrderInput) (*orders.OrderDetail, error)
}

// OrderExpiryJobParams configure the stale pending order job.
type OrderExpiryJobParams struct {
	Logger  *logger.Logger
	Reader  stalePendingReader
	Orders  orderCanceller
	TTLDays int
}

// NewOrderExpiryJob builds the job that cancels orders stuck in pending.
// Cancelling through the lifecycle service keeps the state machine, restock,
// and outbox behavior identical to a user-driven cancellation.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending order reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTLDays
	if ttl <= 0 {
		ttl = pendingOrderTTLDays
	}
	return &orderExpiryJob{
		logg:    params.Logger,
		reader:  params.Reader,
		orders:  params.Orders,
		ttlDays: ttl,
		now:     time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg    *logger.Logger
	reader  stalePendingReader
	orders  orderCanceller
	ttlDays int
	now     func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.ttlDays) * 24 * time.Hour)
	stale, err := j.reader.FindPendingBefore(ctx, cutoff, expiryBatchLimit)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	cancelled := enums.OrderStatusCancelled
	note := fmt.Sprintf("auto-cancelled after %d days pending", j.ttlDays)

	var errs error
	expired := 0
	for _, order := range stale {
		_, err := j.orders.Update(ctx, orders.UpdateOrderInput{
			BusinessID:  order.BusinessID,
			OrderID:     order.ID,
			Status:      &cancelled,
			StatusNote:  &note,
			ActorUserID: systemActorID,
			ActorRole:   "system",
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":   cutoff,
		"ttl_days": j.ttlDays,
		"stale":    len(stale),
		"expired":  expired,
	})
	j.logg.Info(logCtx, "pending order expiry complete")
	return errs
}
