package models

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord tracks available/reserved counts per (product, warehouse) pair.
// Rows are mutated only through the stock ledger's reserve/release/consume
// operations, never directly by order code.
type StockRecord struct {
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WarehouseID       uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	QuantityAvailable int       `gorm:"column:quantity_available;not null;default:0"`
	QuantityReserved  int       `gorm:"column:quantity_reserved;not null;default:0"`
	AlertThreshold    int       `gorm:"column:alert_threshold;not null;default:10"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalQuantity is the physical count on hand, reserved included.
func (s *StockRecord) TotalQuantity() int {
	return s.QuantityAvailable + s.QuantityReserved
}

// BelowThreshold reports whether available stock sits at or under the alert
// threshold.
func (s *StockRecord) BelowThreshold() bool {
	return s.QuantityAvailable <= s.AlertThreshold
}
