package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/biztrackhq/biztrack-backend/api/responses"
	"github.com/biztrackhq/biztrack-backend/api/validators"
	internalorders "github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/pagination"
)

// List returns the business's orders, newest first, with cursor pagination.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
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

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), who.businessID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns the hydrated order with its items and status history.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseURLUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), who.businessID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Create runs the order unit of work and returns the persisted order plus any
// low stock alerts raised while reserving inventory.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput(who)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), result.Order.ID.String())
			logg.Info(ctx, "order created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Update applies a partial update, enforcing the status transition table.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseURLUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput(who, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Delete removes a pending or cancelled order, restocking pending reservations.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseURLUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Delete(r.Context(), internalorders.DeleteOrderInput{
			BusinessID:  who.businessID,
			OrderID:     orderID,
			ActorUserID: who.userID,
			ActorRole:   who.role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// StatsSummary aggregates order counts and revenue over an optional date range.
func StatsSummary(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildStatsFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Stats(r.Context(), who.businessID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
