package inventory

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biztrackhq/biztrack-backend/api/middleware"
	"github.com/biztrackhq/biztrack-backend/api/responses"
	"github.com/biztrackhq/biztrack-backend/api/validators"
	internalinventory "github.com/biztrackhq/biztrack-backend/internal/inventory"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

type itemResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	SKU               *string   `json:"sku,omitempty"`
	CurrentQuantity   int       `json:"current_quantity"`
	UnitOfMeasure     string    `json:"unit_of_measure"`
	LowStockThreshold *int      `json:"low_stock_threshold,omitempty"`
	LowStock          bool      `json:"low_stock"`
}

func businessFromContext(r *http.Request) (uuid.UUID, error) {
	businessID, err := uuid.Parse(middleware.BusinessIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "business context missing")
	}
	return businessID, nil
}

// ItemDetail returns the live stock level for one tracked item.
func ItemDetail(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := businessFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParseURLUUID(chi.URLParam(r, "inventoryId"), "inventory id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), businessID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, itemResponse{
			ID:                item.ID,
			Name:              item.Name,
			SKU:               item.SKU,
			CurrentQuantity:   item.CurrentQuantity,
			UnitOfMeasure:     item.UnitOfMeasure,
			LowStockThreshold: item.LowStockThreshold,
			LowStock:          item.IsLowStock(),
		})
	}
}

// Transactions pages through the item's append-only ledger, newest first.
func Transactions(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := businessFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.ParseURLUUID(chi.URLParam(r, "inventoryId"), "inventory id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.ListTransactions(r.Context(), businessID, itemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
