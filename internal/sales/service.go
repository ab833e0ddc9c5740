package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

// royaltyRate is the network's cut of every franchise's daily revenue.
var royaltyRate = decimal.NewFromFloat(0.04)

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

// RecordSaleInput captures one franchise day of revenue.
type RecordSaleInput struct {
	Actor            Actor
	FranchiseID      uuid.UUID
	SaleDate         time.Time
	DailyRevenue     decimal.Decimal
	TransactionCount int
}

// ListSalesInput filters a franchise's sales history.
type ListSalesInput struct {
	Actor       Actor
	FranchiseID uuid.UUID
	From        *time.Time
	To          *time.Time
}

// SalesSummary aggregates a franchise's figures over a period.
type SalesSummary struct {
	FranchiseID  uuid.UUID       `json:"franchise_id"`
	DayCount     int             `json:"day_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalRoyalty decimal.Decimal `json:"total_royalty"`
}

// Service records and reports franchise revenue. The royalty owed to the
// network is fixed at record time so a later rate change never rewrites
// history.
type Service interface {
	Record(ctx context.Context, input RecordSaleInput) (*models.Sale, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, input ListSalesInput) ([]models.Sale, error)
	Summary(ctx context.Context, input ListSalesInput) (*SalesSummary, error)
}

type service struct {
	repo Repository
}

// NewService wires a sales service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

// RoyaltyFor computes the network royalty on a revenue figure, rounded to
// cents.
func RoyaltyFor(revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(royaltyRate).Round(2)
}

func (s *service) Record(ctx context.Context, input RecordSaleInput) (*models.Sale, error) {
	if err := s.checkScope(input.Actor, input.FranchiseID); err != nil {
		return nil, err
	}
	if input.SaleDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale date required")
	}
	if input.DailyRevenue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "daily revenue must not be negative")
	}
	if input.TransactionCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction count must not be negative")
	}

	sale := &models.Sale{
		FranchiseID:      input.FranchiseID,
		SaleDate:         truncateToDay(input.SaleDate),
		DailyRevenue:     input.DailyRevenue,
		RoyaltyDue:       RoyaltyFor(input.DailyRevenue),
		TransactionCount: input.TransactionCount,
	}
	if _, err := s.repo.Create(ctx, sale); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_sales_franchise_date") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sale already recorded for this date")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, input ListSalesInput) ([]models.Sale, error) {
	if err := s.checkScope(input.Actor, input.FranchiseID); err != nil {
		return nil, err
	}
	sales, err := s.repo.ListByFranchise(ctx, input.FranchiseID, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return sales, nil
}

func (s *service) Summary(ctx context.Context, input ListSalesInput) (*SalesSummary, error) {
	sales, err := s.List(ctx, input)
	if err != nil {
		return nil, err
	}
	summary := &SalesSummary{
		FranchiseID:  input.FranchiseID,
		DayCount:     len(sales),
		TotalRevenue: decimal.Zero,
		TotalRoyalty: decimal.Zero,
	}
	for _, sale := range sales {
		summary.TotalRevenue = summary.TotalRevenue.Add(sale.DailyRevenue)
		summary.TotalRoyalty = summary.TotalRoyalty.Add(sale.RoyaltyDue)
	}
	return summary, nil
}

// checkScope hides foreign franchises from franchisees rather than admitting
// they exist.
func (s *service) checkScope(actor Actor, franchiseID uuid.UUID) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if franchiseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "franchise id required")
	}
	if !actor.IsAdmin() && !actor.Operates(franchiseID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Get loads one sale row, enforcing the caller's franchise scope. Foreign
// rows read as not found.
func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Sale, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	if !actor.IsAdmin() && !actor.Operates(sale.FranchiseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	return sale, nil
}
