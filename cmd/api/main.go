package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drivncook/supply-backend/api/routes"
	"github.com/drivncook/supply-backend/internal/franchises"
	"github.com/drivncook/supply-backend/internal/ordercode"
	"github.com/drivncook/supply-backend/internal/orders"
	"github.com/drivncook/supply-backend/internal/products"
	"github.com/drivncook/supply-backend/internal/sales"
	"github.com/drivncook/supply-backend/internal/stockledger"
	"github.com/drivncook/supply-backend/internal/warehouses"
	"github.com/drivncook/supply-backend/pkg/config"
	"github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/logger"
	"github.com/drivncook/supply-backend/pkg/metrics"
	"github.com/drivncook/supply-backend/pkg/migrate"
	"github.com/drivncook/supply-backend/pkg/outbox"
	"github.com/drivncook/supply-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
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
	orderMetrics := metrics.NewOrderMetrics(registry)

	gormDB := dbClient.DB()

	franchiseService, err := franchises.NewService(franchises.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create franchise service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(products.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	warehouseService, err := warehouses.NewService(warehouses.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}
	stockService, err := stockledger.NewService(stockledger.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}
	salesService, err := sales.NewService(sales.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}
	codeGenerator, err := ordercode.NewGenerator(ordercode.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create order code generator", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceDeps{
		Repo:       orders.NewRepository(gormDB),
		Tx:         dbClient,
		Codes:      codeGenerator,
		Stock:      stockService,
		Outbox:     outbox.NewService(outbox.NewRepository(gormDB), logg),
		Franchises: franchiseService,
		Products:   productService,
		Warehouses: warehouseService,
		Metrics:    orderMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Orders:     orderService,
			Stock:      stockService,
			Products:   productService,
			Warehouses: warehouseService,
			Franchises: franchiseService,
			Sales:      salesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
