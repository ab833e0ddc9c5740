package enums

import "fmt"

// WarehouseStatus tracks whether a warehouse may receive new allocations.
type WarehouseStatus string

const (
	WarehouseStatusActive      WarehouseStatus = "active"
	WarehouseStatusMaintenance WarehouseStatus = "maintenance"
	WarehouseStatusClosed      WarehouseStatus = "closed"
)

var validWarehouseStatuses = []WarehouseStatus{
	WarehouseStatusActive,
	WarehouseStatusMaintenance,
	WarehouseStatusClosed,
}

// String implements fmt.Stringer.
func (w WarehouseStatus) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WarehouseStatus.
func (w WarehouseStatus) IsValid() bool {
	for _, candidate := range validWarehouseStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWarehouseStatus converts raw input into a WarehouseStatus.
func ParseWarehouseStatus(value string) (WarehouseStatus, error) {
	for _, candidate := range validWarehouseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse status %q", value)
}
