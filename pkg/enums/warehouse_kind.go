package enums

import "fmt"

// WarehouseKind classifies a warehouse for the 80/20 spend policy.
// Purchases from network warehouses count toward the mandatory 80% minimum;
// free-market purchases are capped at 20% of order value.
type WarehouseKind string

const (
	WarehouseKindNetwork    WarehouseKind = "network"
	WarehouseKindFreeMarket WarehouseKind = "free_market"
)

var validWarehouseKinds = []WarehouseKind{
	WarehouseKindNetwork,
	WarehouseKindFreeMarket,
}

// String implements fmt.Stringer.
func (w WarehouseKind) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WarehouseKind.
func (w WarehouseKind) IsValid() bool {
	for _, candidate := range validWarehouseKinds {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWarehouseKind converts raw input into a WarehouseKind.
func ParseWarehouseKind(value string) (WarehouseKind, error) {
	for _, candidate := range validWarehouseKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse kind %q", value)
}
