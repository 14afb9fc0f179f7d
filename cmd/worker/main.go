package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	serviceKind       = "worker"
	deliveryDedupeTTL = 7 * 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "worker shut down gracefully")
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.ID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, pubsub.WorkerResources(cfg.PubSub), logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	guard, err := idempotency.NewGuard(redisClient, notifications.ConsumerName, deliveryDedupeTTL)
	if err != nil {
		return err
	}
	repo := notifications.NewRepository(dbClient.DB())

	consumers := map[string]consumer{}
	if cfg.PubSub.OrdersSubscription != "" {
		c, err := notifications.NewConsumer(repo, pubsubClient.Subscription(cfg.PubSub.OrdersSubscription), guard, logg)
		if err != nil {
			return err
		}
		consumers["order-notifications"] = c
	}
	if cfg.PubSub.PaymentsSubscription != "" {
		c, err := notifications.NewConsumer(repo, pubsubClient.Subscription(cfg.PubSub.PaymentsSubscription), guard, logg)
		if err != nil {
			return err
		}
		consumers["payment-notifications"] = c
	}

	service, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: []dependency{
			{name: "database", dep: dbClient},
			{name: "redis", dep: redisClient},
			{name: "pubsub", dep: pubsubClient},
		},
		Consumers: consumers,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting worker")
	return service.Run(ctx)
}
