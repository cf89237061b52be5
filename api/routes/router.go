package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/biztrackhq/biztrack-backend/api/controllers"
	inventorycontrollers "github.com/biztrackhq/biztrack-backend/api/controllers/inventory"
	ordercontrollers "github.com/biztrackhq/biztrack-backend/api/controllers/orders"
	"github.com/biztrackhq/biztrack-backend/api/middleware"
	"github.com/biztrackhq/biztrack-backend/internal/inventory"
	"github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/config"
	"github.com/biztrackhq/biztrack-backend/pkg/db"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/metrics"
	"github.com/biztrackhq/biztrack-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	ordersService orders.Service,
	inventoryService inventory.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/stats/summary", ordercontrollers.StatsSummary(ordersService, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(ordersService, logg))
				r.Put("/", ordercontrollers.Update(ordersService, logg))
				r.With(middleware.RequireRoles(logg, enums.UserRoleOwner, enums.UserRoleManager)).
					Delete("/", ordercontrollers.Delete(ordersService, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/{inventoryId}", func(r chi.Router) {
				r.Get("/", inventorycontrollers.ItemDetail(inventoryService, logg))
				r.Get("/transactions", inventorycontrollers.Transactions(inventoryService, logg))
			})
		})
	})

	return r
}
