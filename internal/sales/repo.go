package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
)

// Repository manages persistence for daily sales figures.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindByFranchiseDate(ctx context.Context, franchiseID uuid.UUID, day time.Time) (*models.Sale, error)
	ListByFranchise(ctx context.Context, franchiseID uuid.UUID, from, to *time.Time) ([]models.Sale, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindByFranchiseDate(ctx context.Context, franchiseID uuid.UUID, day time.Time) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Where("franchise_id = ? AND sale_date = ?", franchiseID, day).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListByFranchise(ctx context.Context, franchiseID uuid.UUID, from, to *time.Time) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("franchise_id = ?", franchiseID)
	if from != nil {
		query = query.Where("sale_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("sale_date < ?", *to)
	}
	var sales []models.Sale
	if err := query.Order("sale_date DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", id).
		Updates(updates).Error
}
