package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/biztrackhq/biztrack-backend/pkg/db"
	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

func seedOrder(t *testing.T, conn *gorm.DB, order *models.Order) *models.Order {
	t.Helper()
	if order.Status == "" {
		order.Status = enums.OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = enums.PaymentStatusUnpaid
	}
	if order.CreatedBy == uuid.Nil {
		order.CreatedBy = uuid.New()
	}
	if err := conn.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestFindLastOrderNumberScansDayPrefix(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	businessID := uuid.New()
	otherBusiness := uuid.New()

	for _, number := range []string{"ORD-20260828-0001", "ORD-20260828-0017", "ORD-20260827-0400"} {
		seedOrder(t, conn, &models.Order{
			BusinessID:  businessID,
			OrderNumber: number,
			Subtotal:    decimal.NewFromInt(10),
			TotalAmount: decimal.NewFromInt(10),
		})
	}
	seedOrder(t, conn, &models.Order{
		BusinessID:  otherBusiness,
		OrderNumber: "ORD-20260828-0900",
		Subtotal:    decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(10),
	})

	last, err := repo.FindLastOrderNumber(context.Background(), businessID, "ORD-20260828-")
	if err != nil {
		t.Fatalf("find last: %v", err)
	}
	if last != "ORD-20260828-0017" {
		t.Fatalf("expected ORD-20260828-0017, got %q", last)
	}

	empty, err := repo.FindLastOrderNumber(context.Background(), businessID, "ORD-20260901-")
	if err != nil {
		t.Fatalf("find last on empty day: %v", err)
	}
	if empty != "" {
		t.Fatalf("expected empty result for a fresh day, got %q", empty)
	}
}

func TestOrderNumberUniquePerBusiness(t *testing.T) {
	conn := newTestDB(t)
	businessID := uuid.New()

	seedOrder(t, conn, &models.Order{
		BusinessID:  businessID,
		OrderNumber: "ORD-20260828-0001",
		Subtotal:    decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(10),
	})

	dup := &models.Order{
		BusinessID:    businessID,
		OrderNumber:   "ORD-20260828-0001",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		CreatedBy:     uuid.New(),
		Subtotal:      decimal.NewFromInt(10),
		TotalAmount:   decimal.NewFromInt(10),
	}
	err := conn.Create(dup).Error
	if err == nil {
		t.Fatal("duplicate order number must be rejected")
	}
	if !dbpkg.IsUniqueViolation(err, orderNumberConstraint) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// The same number under a different business is fine.
	seedOrder(t, conn, &models.Order{
		BusinessID:  uuid.New(),
		OrderNumber: "ORD-20260828-0001",
		Subtotal:    decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(10),
	})
}

func TestListOrdersFilters(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	businessID := uuid.New()
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	customer := &models.Customer{BusinessID: businessID, Name: "Maria Lopez"}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	seedOrder(t, conn, &models.Order{
		BusinessID:    businessID,
		CustomerID:    &customer.ID,
		OrderNumber:   "ORD-20260820-0001",
		Status:        enums.OrderStatusDelivered,
		PaymentStatus: enums.PaymentStatusPaid,
		Subtotal:      decimal.NewFromInt(100),
		TotalAmount:   decimal.NewFromInt(100),
		OrderDate:     base,
		CreatedAt:     base,
	})
	seedOrder(t, conn, &models.Order{
		BusinessID:    businessID,
		OrderNumber:   "ORD-20260821-0001",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Subtotal:      decimal.NewFromInt(50),
		TotalAmount:   decimal.NewFromInt(50),
		OrderDate:     base.AddDate(0, 0, 1),
		CreatedAt:     base.AddDate(0, 0, 1),
	})
	seedOrder(t, conn, &models.Order{
		BusinessID:    businessID,
		OrderNumber:   "ORD-20260822-0001",
		Status:        enums.OrderStatusCancelled,
		PaymentStatus: enums.PaymentStatusRefunded,
		Subtotal:      decimal.NewFromInt(30),
		TotalAmount:   decimal.NewFromInt(30),
		OrderDate:     base.AddDate(0, 0, 2),
		CreatedAt:     base.AddDate(0, 0, 2),
	})
	// Another tenant's order must never leak in.
	seedOrder(t, conn, &models.Order{
		BusinessID:  uuid.New(),
		OrderNumber: "ORD-20260820-0001",
		Subtotal:    decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(10),
	})

	all, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders for the business, got %d", len(all))
	}

	pending := enums.OrderStatusPending
	byStatus, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{Status: &pending})
	if err != nil {
		t.Fatalf("filter by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].OrderNumber != "ORD-20260821-0001" {
		t.Fatalf("unexpected status filter result %+v", byStatus)
	}

	paid := enums.PaymentStatusPaid
	byPayment, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{PaymentStatus: &paid})
	if err != nil {
		t.Fatalf("filter by payment status: %v", err)
	}
	if len(byPayment) != 1 || byPayment[0].OrderNumber != "ORD-20260820-0001" {
		t.Fatalf("unexpected payment filter result %+v", byPayment)
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	byDate, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{DateFrom: &from, DateTo: &to})
	if err != nil {
		t.Fatalf("filter by date: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("expected 2 orders in range, got %d", len(byDate))
	}

	byNumber, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{Query: "20260822"})
	if err != nil {
		t.Fatalf("search by number: %v", err)
	}
	if len(byNumber) != 1 || byNumber[0].OrderNumber != "ORD-20260822-0001" {
		t.Fatalf("unexpected number search result %+v", byNumber)
	}

	byName, err := repo.ListOrders(context.Background(), businessID, pagination.Params{Limit: 10}, OrderFilters{Query: "Lopez"})
	if err != nil {
		t.Fatalf("search by customer name: %v", err)
	}
	if len(byName) != 1 || byName[0].OrderNumber != "ORD-20260820-0001" {
		t.Fatalf("unexpected name search result %+v", byName)
	}
}

func TestListOrdersKeysetPagination(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	businessID := uuid.New()
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedOrder(t, conn, &models.Order{
			BusinessID:  businessID,
			OrderNumber: formatOrderNumber(base.AddDate(0, 0, i), 1),
			Subtotal:    decimal.NewFromInt(10),
			TotalAmount: decimal.NewFromInt(10),
			OrderDate:   base.AddDate(0, 0, i),
			CreatedAt:   base.AddDate(0, 0, i),
		})
	}

	first, err := svc.List(context.Background(), businessID, pagination.Params{Limit: 2}, OrderFilters{})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(first.Orders) != 2 || first.NextCursor == "" {
		t.Fatalf("expected full first page with cursor, got %d rows", len(first.Orders))
	}
	// Newest first.
	if first.Orders[0].OrderNumber != "ORD-20260824-0001" {
		t.Fatalf("expected newest order first, got %q", first.Orders[0].OrderNumber)
	}

	second, err := svc.List(context.Background(), businessID, pagination.Params{Limit: 2, Cursor: first.NextCursor}, OrderFilters{})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	third, err := svc.List(context.Background(), businessID, pagination.Params{Limit: 2, Cursor: second.NextCursor}, OrderFilters{})
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(third.Orders) != 1 || third.NextCursor != "" {
		t.Fatalf("expected final page with 1 row and no cursor, got %d rows", len(third.Orders))
	}

	seen := map[uuid.UUID]bool{}
	for _, page := range [][]OrderSummary{first.Orders, second.Orders, third.Orders} {
		for _, order := range page {
			if seen[order.ID] {
				t.Fatalf("order %s returned twice", order.ID)
			}
			seen[order.ID] = true
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 orders across pages, got %d", len(seen))
	}
}

func TestStatsAggregation(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	businessID := uuid.New()
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	rows := []struct {
		number  string
		status  enums.OrderStatus
		payment enums.PaymentStatus
		total   int64
		offset  int
	}{
		{"ORD-20260820-0001", enums.OrderStatusDelivered, enums.PaymentStatusPaid, 100, 0},
		{"ORD-20260821-0001", enums.OrderStatusDelivered, enums.PaymentStatusPaid, 50, 1},
		{"ORD-20260822-0001", enums.OrderStatusCancelled, enums.PaymentStatusRefunded, 30, 2},
		{"ORD-20260823-0001", enums.OrderStatusPending, enums.PaymentStatusUnpaid, 20, 3},
	}
	for _, row := range rows {
		seedOrder(t, conn, &models.Order{
			BusinessID:    businessID,
			OrderNumber:   row.number,
			Status:        row.status,
			PaymentStatus: row.payment,
			Subtotal:      decimal.NewFromInt(row.total),
			TotalAmount:   decimal.NewFromInt(row.total),
			OrderDate:     base.AddDate(0, 0, row.offset),
		})
	}

	summary, err := repo.Stats(context.Background(), businessID, StatsFilters{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if summary.TotalOrders != 4 {
		t.Fatalf("expected 4 orders, got %d", summary.TotalOrders)
	}
	if !summary.TotalRevenue.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("cancelled orders must not count toward revenue, got %s", summary.TotalRevenue)
	}
	if !summary.AverageOrderValue.Equal(decimal.RequireFromString("56.67")) {
		t.Fatalf("expected AOV 56.67, got %s", summary.AverageOrderValue)
	}
	if summary.StatusCounts[enums.OrderStatusDelivered] != 2 || summary.StatusCounts[enums.OrderStatusCancelled] != 1 {
		t.Fatalf("unexpected status counts %+v", summary.StatusCounts)
	}
	if summary.PaymentStatusCounts[enums.PaymentStatusPaid] != 2 {
		t.Fatalf("unexpected payment counts %+v", summary.PaymentStatusCounts)
	}

	from := base.AddDate(0, 0, 1)
	filtered, err := repo.Stats(context.Background(), businessID, StatsFilters{DateFrom: &from})
	if err != nil {
		t.Fatalf("filtered stats: %v", err)
	}
	if filtered.TotalOrders != 3 {
		t.Fatalf("expected 3 orders from the cutoff, got %d", filtered.TotalOrders)
	}
	if !filtered.TotalRevenue.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected revenue 70 in range, got %s", filtered.TotalRevenue)
	}
}

func TestStatsEmptyBusiness(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	summary, err := repo.Stats(context.Background(), uuid.New(), StatsFilters{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if summary.TotalOrders != 0 {
		t.Fatalf("expected no orders, got %d", summary.TotalOrders)
	}
	if !summary.TotalRevenue.IsZero() || !summary.AverageOrderValue.IsZero() {
		t.Fatalf("expected zero revenue and AOV, got %s / %s", summary.TotalRevenue, summary.AverageOrderValue)
	}
}
