package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/locations"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/payment"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/wilayah"
)

const (
	shutdownTimeout       = 15 * time.Second
	notificationDedupeTTL = 72 * time.Hour
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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, redisClient, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, services, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	); err != nil {
		logg.Error(ctx, "error during shutdown", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	checkoutMetrics *metrics.CheckoutMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()

	productRepo := product.NewRepository(conn)
	catalog, err := product.NewService(productRepo)
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, productRepo, catalog)
	if err != nil {
		return routes.Services{}, err
	}

	addressService, err := address.NewService(address.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	userRepo := users.NewRepository(conn)
	userService, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)
	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(
		orderRepo,
		dbClient,
		userRepo,
		addressService,
		cartService,
		outboxService,
		logg,
		orders.Options{
			Checkout:         cfg.Checkout,
			Password:         cfg.Password,
			MarkPaidOnCreate: cfg.FeatureFlags.MarkPaidOnCreate,
		},
	)
	if err != nil {
		return routes.Services{}, err
	}

	paymentService, err := buildPayments(cfg, logg, dbClient, redisClient, orderRepo, outboxService, checkoutMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:     cartService,
		Orders:   orderService,
		Payments: paymentService,
		JWT:      cfg.JWT,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	source := wilayah.NewClient(
		wilayah.WithBaseURL(cfg.Locations.BaseURL),
		wilayah.WithTimeout(cfg.Locations.Timeout),
	)
	locationService, err := locations.NewService(source, redisClient, cfg.Locations.CacheTTL, logg)
	if err != nil {
		return routes.Services{}, err
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Products:      catalog,
		Cart:          cartService,
		Checkout:      checkoutService,
		Payments:      paymentService,
		Orders:        orderService,
		Addresses:     addressService,
		Locations:     locationService,
		Users:         userService,
		Notifications: notificationService,
	}, nil
}

// buildPayments returns nil without a gateway server key outside production;
// checkout then leaves orders unpaid and the payment endpoints answer 500.
func buildPayments(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	orderRepo orders.Repository,
	outboxService *outbox.Service,
	checkoutMetrics *metrics.CheckoutMetrics,
) (payments.Service, error) {
	if strings.TrimSpace(cfg.Payment.ServerKey) == "" {
		logg.Warn(context.Background(), "payment server key not set, payment gateway disabled")
		return nil, nil
	}
	gateway, err := payment.NewClient(cfg.Payment)
	if err != nil {
		return nil, err
	}
	deliveries, err := idempotency.NewGuard(redisClient, payments.NotificationConsumer, notificationDedupeTTL)
	if err != nil {
		return nil, err
	}
	return payments.NewService(payments.ServiceParams{
		Orders:      orderRepo,
		Tx:          dbClient,
		Gateway:     gateway,
		Outbox:      outboxService,
		Deliveries:  deliveries,
		Limiter:     redisClient,
		Metrics:     checkoutMetrics,
		Logger:      logg,
		FinishURL:   strings.TrimRight(cfg.App.PublicURL, "/") + cfg.Payment.FinishPath,
		RetryLimit:  cfg.RateLimit.PaymentRetryLimit,
		RetryWindow: cfg.RateLimit.PaymentRetryWindow,
	})
}
