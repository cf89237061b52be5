package orders

import (
	"net/http"
	"strings"

	"github.com/biztrackhq/biztrack-backend/api/validators"
	internalorders "github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
)

func buildListFilters(r *http.Request) (internalorders.OrderFilters, error) {
	filters := internalorders.OrderFilters{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		filters.PaymentStatus = &status
	}

	customerID, err := validators.ParseQueryUUID(r, "customer_id")
	if err != nil {
		return filters, err
	}
	filters.CustomerID = customerID

	dateFrom, err := validators.ParseQueryDate(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := validators.ParseQueryDate(r, "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = dateTo

	return filters, nil
}

func buildStatsFilters(r *http.Request) (internalorders.StatsFilters, error) {
	var filters internalorders.StatsFilters

	dateFrom, err := validators.ParseQueryDate(r, "date_from")
	if err != nil {
		return filters, err
	}
	filters.DateFrom = dateFrom

	dateTo, err := validators.ParseQueryDate(r, "date_to")
	if err != nil {
		return filters, err
	}
	filters.DateTo = dateTo

	return filters, nil
}
