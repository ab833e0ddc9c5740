package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one allocation within an order: a product sourced from one
// specific warehouse. The unit price is the catalog snapshot taken at line
// creation. A (product, warehouse) pair appears at most once per order.
type OrderLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_lines_allocation"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_order_lines_allocation"`
	WarehouseID uuid.UUID       `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_order_lines_allocation"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(6,2);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(8,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
