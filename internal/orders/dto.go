package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// Actor identifies the authenticated caller for ownership and role checks.
type Actor struct {
	UserID      uuid.UUID
	FranchiseID *uuid.UUID
	Role        enums.MemberRole
}

// IsAdmin reports whether the actor carries the network operator role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.MemberRoleAdmin
}

// Operates reports whether the actor runs the given franchise.
func (a Actor) Operates(franchiseID uuid.UUID) bool {
	return a.FranchiseID != nil && *a.FranchiseID == franchiseID
}

// LineInput is one requested allocation: a product quantity sourced from a
// specific warehouse.
type LineInput struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
}

// CreateOrderInput captures everything needed to open a pending order.
type CreateOrderInput struct {
	Actor           Actor
	FranchiseID     uuid.UUID
	DeliveryDate    *time.Time
	DeliveryAddress string
	Lines           []LineInput
}

// ReplaceLinesInput swaps the full line set of a pending order.
type ReplaceLinesInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Lines   []LineInput
}

// DeleteOrderInput removes a pending or cancelled order.
type DeleteOrderInput struct {
	Actor   Actor
	OrderID uuid.UUID
}

// TransitionInput moves an order to the target lifecycle status.
type TransitionInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Target  enums.OrderStatus
}

// ListFilters describe the inputs supported by the order lists.
type ListFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID               uuid.UUID         `json:"id"`
	Code             string            `json:"code"`
	FranchiseID      uuid.UUID         `json:"franchise_id"`
	Status           enums.OrderStatus `json:"status"`
	DeliveryDate     *time.Time        `json:"delivery_date,omitempty"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	NetworkAmount    decimal.Decimal   `json:"network_amount"`
	FreeMarketAmount decimal.Decimal   `json:"free_market_amount"`
	LineCount        int               `json:"line_count"`
	CreatedAt        time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ComplianceReport is the per-order view of the supply ratio policy.
type ComplianceReport struct {
	OrderID           uuid.UUID       `json:"order_id"`
	OrderCode         string          `json:"order_code"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	NetworkAmount     decimal.Decimal `json:"network_amount"`
	FreeMarketAmount  decimal.Decimal `json:"free_market_amount"`
	RatioPercent      string          `json:"ratio_percent"`
	FreeMarketPercent string          `json:"free_market_percent"`
	Compliant         bool            `json:"compliant"`
}

// DuplicateLineDetail names the pair that appeared twice in a line set.
type DuplicateLineDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
}

// ComplianceDetail carries the computed split when validation rejects an
// order for breaking the ratio policy.
type ComplianceDetail struct {
	TotalAmount      decimal.Decimal `json:"total_amount"`
	NetworkAmount    decimal.Decimal `json:"network_amount"`
	FreeMarketAmount decimal.Decimal `json:"free_market_amount"`
	RatioPercent     string          `json:"ratio_percent"`
	RequiredPercent  string          `json:"required_percent"`
}
