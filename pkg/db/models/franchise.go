package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Franchise owns orders and daily sales figures. The operator account behind
// OwnerUserID lives in the external identity provider.
type Franchise struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Address     string    `gorm:"column:address"`
	City        string    `gorm:"column:city"`
	PostalCode  string    `gorm:"column:postal_code"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FullAddress renders the registered address, used as the default delivery
// address for new orders.
func (f *Franchise) FullAddress() string {
	parts := make([]string, 0, 2)
	if f.Address != "" {
		parts = append(parts, f.Address)
	}
	switch {
	case f.PostalCode != "" && f.City != "":
		parts = append(parts, f.PostalCode+" "+f.City)
	case f.City != "":
		parts = append(parts, f.City)
	}
	return strings.Join(parts, ", ")
}
