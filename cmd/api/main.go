package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/biztrackhq/biztrack-backend/api/routes"
	"github.com/biztrackhq/biztrack-backend/internal/inventory"
	"github.com/biztrackhq/biztrack-backend/internal/orders"
	"github.com/biztrackhq/biztrack-backend/pkg/config"
	"github.com/biztrackhq/biztrack-backend/pkg/db"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
	"github.com/biztrackhq/biztrack-backend/pkg/metrics"
	"github.com/biztrackhq/biztrack-backend/pkg/migrate"
	"github.com/biztrackhq/biztrack-backend/pkg/outbox"
	"github.com/biztrackhq/biztrack-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, outboxService, inventoryService)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

	port := cfg.App.Port
	if fromEnv := os.Getenv("PORT"); fromEnv != "" {
		port = fromEnv
	}
	instance := os.Getenv("DYNO")
	if instance == "" {
		instance = "local"
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"instance": instance,
	})
	logg.Info(ctx, "starting api server on port "+port)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, ordersService, inventoryService),
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
