package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// OrderCreatedEvent signals a new supply order entering the pipeline.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	FranchiseID uuid.UUID `json:"franchise_id"`
	TotalAmount string    `json:"total_amount"`
	LineCount   int       `json:"line_count"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderCode   string            `json:"order_code"`
	FranchiseID uuid.UUID         `json:"franchise_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderDeletedEvent reports a pending or cancelled order being removed.
type OrderDeletedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderCode   string            `json:"order_code"`
	FranchiseID uuid.UUID         `json:"franchise_id"`
	Status      enums.OrderStatus `json:"status"`
	DeletedAt   time.Time         `json:"deleted_at"`
}

// StockAlertEvent tells downstream systems a warehouse line dropped below its
// restock threshold.
type StockAlertEvent struct {
	ProductID      uuid.UUID `json:"product_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	TotalQuantity  int       `json:"total_quantity"`
	AlertThreshold int       `json:"alert_threshold"`
}
