package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is one franchise's daily revenue figure. RoyaltyDue is the 4% network
// royalty computed when the figure is recorded.
type Sale struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FranchiseID      uuid.UUID       `gorm:"column:franchise_id;type:uuid;not null;uniqueIndex:ux_sales_franchise_date"`
	SaleDate         time.Time       `gorm:"column:sale_date;type:date;not null;uniqueIndex:ux_sales_franchise_date"`
	DailyRevenue     decimal.Decimal `gorm:"column:daily_revenue;type:numeric(10,2);not null"`
	RoyaltyDue       decimal.Decimal `gorm:"column:royalty_due;type:numeric(8,2);not null"`
	TransactionCount int             `gorm:"column:transaction_count;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
