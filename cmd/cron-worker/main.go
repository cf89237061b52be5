package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/biztrackhq/biztrack-backend/internal/cron"
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

const lockKeyFormat = "bt:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)
	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, inventoryService)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	expiryJob, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:  logg,
		Reader:  ordersRepo,
		Orders:  ordersService,
		TTLDays: cfg.Cron.PendingOrderTTLDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(retentionJob, expiryJob),
		Lock:     lock,
		Metrics:  metrics.NewWorkerMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
