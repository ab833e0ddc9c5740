package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// Order is the franchise supply order aggregate. NetworkAmount and
// FreeMarketAmount always sum to TotalAmount; every mutation that touches the
// line set recomputes all three.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code             string            `gorm:"column:code;not null;uniqueIndex"`
	FranchiseID      uuid.UUID         `gorm:"column:franchise_id;type:uuid;not null"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryDate     *time.Time        `gorm:"column:delivery_date;type:date"`
	DeliveryAddress  string            `gorm:"column:delivery_address"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	NetworkAmount    decimal.Decimal   `gorm:"column:network_amount;type:numeric(10,2);not null"`
	FreeMarketAmount decimal.Decimal   `gorm:"column:free_market_amount;type:numeric(10,2);not null"`
	Lines            []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// HoldsReservation reports whether stock is currently reserved on behalf of
// this order.
func (o *Order) HoldsReservation() bool {
	return o.Status == enums.OrderStatusValidated || o.Status == enums.OrderStatusPrepared
}
