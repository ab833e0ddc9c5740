package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

// Service defines warehouse administration operations. Changing a warehouse's
// kind or status only affects orders validated afterwards; lines on existing
// orders keep the classification captured at validation time.
type Service interface {
	Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context, kind string) ([]models.Warehouse, error)
	ListAvailable(ctx context.Context) ([]models.Warehouse, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateWarehouseInput) (*models.Warehouse, error)
}

// CreateWarehouseInput registers a new supply point.
type CreateWarehouseInput struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Kind       string `json:"kind"`
}

// UpdateWarehouseInput patches mutable warehouse fields.
type UpdateWarehouseInput struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Kind       *string `json:"kind,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type service struct {
	repo Repository
}

// NewService wires a warehouse service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name required")
	}
	kind, err := enums.ParseWarehouseKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse kind")
	}

	warehouse := &models.Warehouse{
		Name:       name,
		Address:    input.Address,
		City:       input.City,
		PostalCode: input.PostalCode,
		Kind:       kind,
		Status:     enums.WarehouseStatusActive,
	}
	if _, err := s.repo.Create(ctx, warehouse); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}
	return warehouse, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return warehouse, nil
}

func (s *service) List(ctx context.Context, kind string) ([]models.Warehouse, error) {
	var filter *enums.WarehouseKind
	if strings.TrimSpace(kind) != "" {
		parsed, err := enums.ParseWarehouseKind(kind)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse kind")
		}
		filter = &parsed
	}
	warehouses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	return warehouses, nil
}

// ListAvailable returns the warehouses that may receive new allocations.
func (s *service) ListAvailable(ctx context.Context) ([]models.Warehouse, error) {
	warehouses, err := s.repo.ListByStatus(ctx, enums.WarehouseStatusActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available warehouses")
	}
	return warehouses, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateWarehouseInput) (*models.Warehouse, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.PostalCode != nil {
		updates["postal_code"] = *input.PostalCode
	}
	if input.Kind != nil {
		kind, err := enums.ParseWarehouseKind(*input.Kind)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse kind")
		}
		updates["kind"] = kind
	}
	if input.Status != nil {
		status, err := enums.ParseWarehouseStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status")
		}
		updates["status"] = status
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse")
		}
	}
	return s.Get(ctx, id)
}
