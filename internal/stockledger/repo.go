package stockledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/db/models"
)

// Repository manages persistence for stock records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error)
	GetForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error)
	Save(ctx context.Context, record *models.StockRecord) error
	Upsert(ctx context.Context, record *models.StockRecord) error
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.StockRecord, error)
	ListBelowThreshold(ctx context.Context) ([]models.StockRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error) {
	var record models.StockRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) GetForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error) {
	var record models.StockRecord
	err := dbpkg.LockForUpdate(r.db.WithContext(ctx)).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Save(ctx context.Context, record *models.StockRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) Upsert(ctx context.Context, record *models.StockRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity_available",
				"quantity_reserved",
				"alert_threshold",
				"updated_at",
			}),
		}).
		Create(record).Error
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.StockRecord, error) {
	var records []models.StockRecord
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListBelowThreshold(ctx context.Context) ([]models.StockRecord, error) {
	var records []models.StockRecord
	if err := r.db.WithContext(ctx).
		Where("quantity_available <= alert_threshold").
		Order("warehouse_id ASC").
		Order("product_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
