package enums

import "fmt"

// OutboxEventType names the domain events queued through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderCreated       OutboxEventType = "order.created"
	OutboxEventOrderStatusChanged OutboxEventType = "order.status_changed"
	OutboxEventOrderDeleted       OutboxEventType = "order.deleted"
	OutboxEventStockAlert         OutboxEventType = "stock.alert"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventOrderCreated,
	OutboxEventOrderStatusChanged,
	OutboxEventOrderDeleted,
	OutboxEventStockAlert,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder       OutboxAggregateType = "order"
	OutboxAggregateStockRecord OutboxAggregateType = "stock_record"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	OutboxAggregateOrder,
	OutboxAggregateStockRecord,
}

// String implements fmt.Stringer.
func (o OutboxAggregateType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == o {
			return true
		}
	}
	return false
}
