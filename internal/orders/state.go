package orders

import (
	"github.com/drivncook/supply-backend/pkg/enums"
)

// allowedTransitions is the order lifecycle. Delivered and cancelled are
// terminal; cancellation is only possible before preparation starts.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusValidated, enums.OrderStatusCancelled},
	enums.OrderStatusValidated: {enums.OrderStatusPrepared, enums.OrderStatusCancelled},
	enums.OrderStatusPrepared:  {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanDelete reports whether an order in the given status may be removed.
// Orders that ever held stock or reached the kitchen stay on record.
func CanDelete(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending || status == enums.OrderStatusCancelled
}

// adminOnlyTargets are the warehouse-side steps of the lifecycle; franchise
// operators only validate and cancel their own orders.
func adminOnlyTarget(to enums.OrderStatus) bool {
	return to == enums.OrderStatusPrepared || to == enums.OrderStatusDelivered
}

// TransitionDetail names the rejected move in state conflict errors.
type TransitionDetail struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}
