package warehouses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
)

// Repository manages persistence for warehouses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context, kind *enums.WarehouseKind) ([]models.Warehouse, error)
	ListByStatus(ctx context.Context, status enums.WarehouseStatus) ([]models.Warehouse, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a warehouse repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error) {
	if warehouse.ID == uuid.Nil {
		warehouse.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) List(ctx context.Context, kind *enums.WarehouseKind) ([]models.Warehouse, error) {
	query := r.db.WithContext(ctx).Model(&models.Warehouse{})
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}
	var warehouses []models.Warehouse
	if err := query.Order("name ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WarehouseStatus) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("name ASC").
		Find(&warehouses).Error
	if err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("id = ?", id).
		Updates(updates).Error
}
