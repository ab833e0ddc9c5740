package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	DeleteLines(ctx context.Context, orderID uuid.UUID) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderByCode(ctx context.Context, code string) (*models.Order, error)
	FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	ListOrders(ctx context.Context, franchiseID *uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// FranchiseReader resolves franchises for ownership checks and address
// defaults.
type FranchiseReader interface {
	Get(ctx context.Context, franchiseID uuid.UUID) (*models.Franchise, error)
}

// ProductReader resolves catalog products for price snapshots.
type ProductReader interface {
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

// WarehouseReader resolves warehouses for kind and status checks.
type WarehouseReader interface {
	Get(ctx context.Context, warehouseID uuid.UUID) (*models.Warehouse, error)
}
