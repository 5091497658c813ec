package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ardakurt/kapinda-backend/api/routes"
	"github.com/ardakurt/kapinda-backend/internal/addresses"
	"github.com/ardakurt/kapinda-backend/internal/cart"
	"github.com/ardakurt/kapinda-backend/internal/checkout"
	"github.com/ardakurt/kapinda-backend/internal/notifications"
	"github.com/ardakurt/kapinda-backend/internal/orders"
	"github.com/ardakurt/kapinda-backend/internal/pricing"
	"github.com/ardakurt/kapinda-backend/internal/products"
	"github.com/ardakurt/kapinda-backend/internal/stores"
	"github.com/ardakurt/kapinda-backend/pkg/config"
	"github.com/ardakurt/kapinda-backend/pkg/db"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
	"github.com/ardakurt/kapinda-backend/pkg/metrics"
	"github.com/ardakurt/kapinda-backend/pkg/migrate"
	"github.com/ardakurt/kapinda-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	pricer := pricing.NewEngine(cfg.Delivery)
	sessions := cart.NewSessions()

	storeRepo := stores.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	addressRepo := addresses.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	storeService, err := stores.NewService(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(productRepo, storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	addressService, err := addresses.NewService(addressRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}
	notificationService, err := notifications.NewService(notificationRepo, storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	snapshots := cart.NewSnapshotStore(redisClient, cfg.Cart.SnapshotTTL)
	reconciler, err := cart.NewReconciler(cartRepo, snapshots, logg, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart reconciler", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(sessions, cartRepo, reconciler, productService, pricer, orderMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orderRepo, dbClient, logg, orderMetrics, notificationService)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		sessions,
		cartRepo,
		reconciler,
		addressService,
		storeRepo,
		ordersService,
		dbClient,
		pricer,
		notificationService,
		logg,
		orderMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			cartService,
			checkoutService,
			ordersService,
			addressService,
			notificationService,
			storeService,
			productService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
