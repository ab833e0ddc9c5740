package franchises

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
)

// Repository manages persistence for franchises.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, franchise *models.Franchise) (*models.Franchise, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Franchise, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Franchise, error)
	List(ctx context.Context) ([]models.Franchise, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a franchise repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, franchise *models.Franchise) (*models.Franchise, error) {
	if franchise.ID == uuid.Nil {
		franchise.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(franchise).Error; err != nil {
		return nil, err
	}
	return franchise, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	var franchise models.Franchise
	if err := r.db.WithContext(ctx).First(&franchise, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *repository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Franchise, error) {
	var franchise models.Franchise
	if err := r.db.WithContext(ctx).First(&franchise, "owner_user_id = ?", ownerUserID).Error; err != nil {
		return nil, err
	}
	return &franchise, nil
}

func (r *repository) List(ctx context.Context) ([]models.Franchise, error) {
	var franchises []models.Franchise
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&franchises).Error; err != nil {
		return nil, err
	}
	return franchises, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Franchise{}).
		Where("id = ?", id).
		Updates(updates).Error
}
