package franchises

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

// Service defines franchise administration operations.
type Service interface {
	Create(ctx context.Context, input CreateFranchiseInput) (*models.Franchise, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error)
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Franchise, error)
	List(ctx context.Context) ([]models.Franchise, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateFranchiseInput) (*models.Franchise, error)
}

// CreateFranchiseInput registers a new franchise and its operator account.
type CreateFranchiseInput struct {
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
}

// UpdateFranchiseInput patches mutable franchise fields.
type UpdateFranchiseInput struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

type service struct {
	repo Repository
}

// NewService wires a franchise service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("franchise repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateFranchiseInput) (*models.Franchise, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise name required")
	}
	if input.OwnerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id required")
	}

	franchise := &models.Franchise{
		Name:        strings.TrimSpace(input.Name),
		Address:     input.Address,
		City:        input.City,
		PostalCode:  input.PostalCode,
		OwnerUserID: input.OwnerUserID,
	}
	if _, err := s.repo.Create(ctx, franchise); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create franchise")
	}
	return franchise, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise id required")
	}
	franchise, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load franchise")
	}
	return franchise, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Franchise, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id required")
	}
	franchise, err := s.repo.FindByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load franchise")
	}
	return franchise, nil
}

func (s *service) List(ctx context.Context) ([]models.Franchise, error) {
	franchises, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list franchises")
	}
	return franchises, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateFranchiseInput) (*models.Franchise, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise name required")
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
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update franchise")
		}
	}
	return s.Get(ctx, id)
}
