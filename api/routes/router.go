package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drivncook/supply-backend/api/controllers"
	"github.com/drivncook/supply-backend/api/middleware"
	"github.com/drivncook/supply-backend/internal/franchises"
	"github.com/drivncook/supply-backend/internal/orders"
	"github.com/drivncook/supply-backend/internal/products"
	"github.com/drivncook/supply-backend/internal/sales"
	"github.com/drivncook/supply-backend/internal/stockledger"
	"github.com/drivncook/supply-backend/internal/warehouses"
	"github.com/drivncook/supply-backend/pkg/config"
	"github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/enums"
	"github.com/drivncook/supply-backend/pkg/logger"
	"github.com/drivncook/supply-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Orders     orders.Service
	Stock      stockledger.Service
	Products   products.Service
	Warehouses warehouses.Service
	Franchises franchises.Service
	Sales      sales.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Group(func(r chi.Router) {
			r.Get("/v1/ping", controllers.PrivatePing())

			r.Route("/v1/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
				r.Get("/", controllers.OrderList(svcs.Orders, logg))
				r.Get("/code/{code}", controllers.OrderDetailByCode(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Put("/{orderId}/lines", controllers.OrderReplaceLines(svcs.Orders, logg))
				r.Delete("/{orderId}", controllers.OrderDelete(svcs.Orders, logg))
				r.Post("/{orderId}/transition", controllers.OrderTransition(svcs.Orders, logg))
				r.Get("/{orderId}/compliance", controllers.OrderCompliance(svcs.Orders, logg))
			})

			r.Route("/v1/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(svcs.Products, logg))
				r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
			})

			r.Route("/v1/warehouses", func(r chi.Router) {
				r.Get("/", controllers.WarehouseList(svcs.Warehouses, logg))
				r.Get("/available", controllers.WarehouseAvailable(svcs.Warehouses, logg))
				r.Get("/{warehouseId}", controllers.WarehouseDetail(svcs.Warehouses, logg))
				r.Get("/{warehouseId}/stock", controllers.StockByWarehouse(svcs.Stock, logg))
			})

			r.Route("/v1/sales", func(r chi.Router) {
				r.Post("/", controllers.SaleRecord(svcs.Sales, logg))
				r.Get("/", controllers.SaleList(svcs.Sales, logg))
				r.Get("/summary", controllers.SaleSummary(svcs.Sales, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))
			r.Get("/ping", controllers.AdminPing())

			r.Route("/v1/franchises", func(r chi.Router) {
				r.Post("/", controllers.FranchiseCreate(svcs.Franchises, logg))
				r.Get("/", controllers.FranchiseList(svcs.Franchises, logg))
				r.Get("/{franchiseId}", controllers.FranchiseDetail(svcs.Franchises, logg))
				r.Patch("/{franchiseId}", controllers.FranchiseUpdate(svcs.Franchises, logg))
			})

			r.Route("/v1/products", func(r chi.Router) {
				r.Post("/", controllers.ProductCreate(svcs.Products, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			})

			r.Route("/v1/warehouses", func(r chi.Router) {
				r.Post("/", controllers.WarehouseCreate(svcs.Warehouses, logg))
				r.Patch("/{warehouseId}", controllers.WarehouseUpdate(svcs.Warehouses, logg))
			})

			r.Route("/v1/stock", func(r chi.Router) {
				r.Put("/", controllers.StockSet(svcs.Stock, logg))
				r.Get("/alerts", controllers.StockAlerts(svcs.Stock, logg))
			})
		})
	})

	return r
}
