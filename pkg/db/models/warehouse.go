package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// Warehouse is a physical supply point. Its Kind drives the 80/20 spend
// policy; only Active warehouses may receive new allocations.
type Warehouse struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name       string                `gorm:"column:name;not null"`
	Address    string                `gorm:"column:address"`
	City       string                `gorm:"column:city"`
	PostalCode string                `gorm:"column:postal_code"`
	Kind       enums.WarehouseKind   `gorm:"column:kind;type:text;not null"`
	Status     enums.WarehouseStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// AcceptsAllocations reports whether new order lines may source from here.
func (w *Warehouse) AcceptsAllocations() bool {
	return w.Status == enums.WarehouseStatusActive
}
