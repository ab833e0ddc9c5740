package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// Product is catalog reference data. The engine treats it as a read-only
// snapshot: the unit price is copied onto order lines at creation time so
// later catalog changes never alter historical orders.
type Product struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	Category  string            `gorm:"column:category;not null"`
	UnitPrice decimal.Decimal   `gorm:"column:unit_price;type:numeric(6,2);not null"`
	Unit      enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
