package ordercode

import (
	"context"
	"errors"

	"gorm.io/gorm"

	dbpkg "github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/db/models"
)

// Repository reads issued codes from the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LastCode(ctx context.Context, prefix string) (string, error)
	Exists(ctx context.Context, code string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a code repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LastCode returns the highest code issued under the prefix, locking the row
// so concurrent generators serialize on the same day's sequence.
func (r *repository) LastCode(ctx context.Context, prefix string) (string, error) {
	var order models.Order
	err := dbpkg.LockForUpdate(r.db.WithContext(ctx)).
		Where("code LIKE ?", prefix+"%").
		Order("code DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return order.Code, nil
}

func (r *repository) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
