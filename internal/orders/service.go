package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/internal/stockledger"
	"github.com/drivncook/supply-backend/pkg/compliance"
	dbpkg "github.com/drivncook/supply-backend/pkg/db"
	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
	"github.com/drivncook/supply-backend/pkg/metrics"
	"github.com/drivncook/supply-backend/pkg/outbox"
	"github.com/drivncook/supply-backend/pkg/outbox/payloads"
	"github.com/drivncook/supply-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type codeGenerator interface {
	Next(ctx context.Context, tx *gorm.DB, day time.Time) (string, error)
}

// stockKeeper is the slice of the stock ledger the order lifecycle needs.
type stockKeeper interface {
	Check(ctx context.Context, tx *gorm.DB, demands []stockledger.Demand) ([]stockledger.Shortage, error)
	Reserve(ctx context.Context, tx *gorm.DB, demands []stockledger.Demand) ([]models.StockRecord, error)
	Release(ctx context.Context, tx *gorm.DB, demands []stockledger.Demand) error
	Consume(ctx context.Context, tx *gorm.DB, demands []stockledger.Demand) error
}

// Service defines the order allocation operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	ReplaceLines(ctx context.Context, input ReplaceLinesInput) (*models.Order, error)
	Delete(ctx context.Context, input DeleteOrderInput) error
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	GetByCode(ctx context.Context, actor Actor, code string) (*models.Order, error)
	List(ctx context.Context, actor Actor, franchiseID *uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ComplianceReport(ctx context.Context, actor Actor, orderID uuid.UUID) (*ComplianceReport, error)
}

// ServiceDeps carries the collaborators the order service needs.
type ServiceDeps struct {
	Repo       Repository
	Tx         txRunner
	Codes      codeGenerator
	Stock      stockKeeper
	Outbox     outboxPublisher
	Franchises FranchiseReader
	Products   ProductReader
	Warehouses WarehouseReader
	Metrics    *metrics.OrderMetrics
	Now        func() time.Time
}

type service struct {
	deps ServiceDeps
}

// NewService builds an order service with the required dependencies.
func NewService(deps ServiceDeps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Codes == nil {
		return nil, fmt.Errorf("order code generator required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Franchises == nil {
		return nil, fmt.Errorf("franchise reader required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if deps.Warehouses == nil {
		return nil, fmt.Errorf("warehouse reader required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.FranchiseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise id required")
	}
	// Non-operators see nothing about franchises they don't run.
	if !input.Actor.IsAdmin() && !input.Actor.Operates(input.FranchiseID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
	}
	if err := validateLineInputs(input.Lines); err != nil {
		return nil, err
	}

	franchise, err := s.deps.Franchises.Get(ctx, input.FranchiseID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load franchise")
	}

	lines, breakdown, err := s.resolveLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	if !breakdown.Compliant() {
		return nil, s.complianceViolation(breakdown)
	}
	if err := s.ensureAvailability(ctx, lines); err != nil {
		return nil, err
	}

	address := input.DeliveryAddress
	if address == "" {
		address = franchise.FullAddress()
	}

	var created *models.Order
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Repo.WithTx(tx)

		code, err := s.deps.Codes.Next(ctx, tx, s.deps.Now())
		if err != nil {
			return err
		}

		order := &models.Order{
			Code:             code,
			FranchiseID:      input.FranchiseID,
			Status:           enums.OrderStatusPending,
			DeliveryDate:     input.DeliveryDate,
			DeliveryAddress:  address,
			TotalAmount:      breakdown.TotalAmount,
			NetworkAmount:    breakdown.NetworkAmount,
			FreeMarketAmount: breakdown.FreeMarketAmount,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_orders_code") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order code already issued")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_order_lines_allocation") {
				return pkgerrors.New(pkgerrors.CodeDuplicateLine, "duplicate allocation in order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}
		order.Lines = lines
		created = order

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCreated,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderCode:   order.Code,
				FranchiseID: order.FranchiseID,
				TotalAmount: order.TotalAmount.String(),
				LineCount:   len(order.Lines),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncCreated(created.FranchiseID.String())
	return created, nil
}

func (s *service) ReplaceLines(ctx context.Context, input ReplaceLinesInput) (*models.Order, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateLineInputs(input.Lines); err != nil {
		return nil, err
	}

	lines, breakdown, err := s.resolveLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	if !breakdown.Compliant() {
		return nil, s.complianceViolation(breakdown)
	}
	if err := s.ensureAvailability(ctx, lines); err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.Actor, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order lines can only change while pending").
				WithDetails(TransitionDetail{From: order.Status, To: order.Status})
		}

		if err := repo.DeleteLines(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order lines")
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_order_lines_allocation") {
				return pkgerrors.New(pkgerrors.CodeDuplicateLine, "duplicate allocation in order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order lines")
		}
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"total_amount":       breakdown.TotalAmount,
			"network_amount":     breakdown.NetworkAmount,
			"free_market_amount": breakdown.FreeMarketAmount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order amounts")
		}

		order.Lines = lines
		order.TotalAmount = breakdown.TotalAmount
		order.NetworkAmount = breakdown.NetworkAmount
		order.FreeMarketAmount = breakdown.FreeMarketAmount
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, input DeleteOrderInput) error {
	if input.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.Actor, input.OrderID)
		if err != nil {
			return err
		}
		if !CanDelete(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted").
				WithDetails(TransitionDetail{From: order.Status, To: order.Status})
		}

		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderDeleted,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.OrderDeletedEvent{
				OrderID:     order.ID,
				OrderCode:   order.Code,
				FranchiseID: order.FranchiseID,
				Status:      order.Status,
				DeletedAt:   s.deps.Now(),
			},
		})
	})
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if adminOnlyTarget(input.Target) && !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "operator role required")
	}

	var result *models.Order
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Repo.WithTx(tx)

		order, err := s.loadOwnedForUpdate(ctx, repo, input.Actor, input.OrderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(TransitionDetail{From: order.Status, To: input.Target})
		}

		from := order.Status
		switch input.Target {
		case enums.OrderStatusValidated:
			if err := s.validateOrder(ctx, tx, repo, order, input.Actor); err != nil {
				return err
			}
		case enums.OrderStatusCancelled:
			if order.HoldsReservation() {
				if err := s.deps.Stock.Release(ctx, tx, demandsFromLines(order.Lines)); err != nil {
					return err
				}
			}
		case enums.OrderStatusDelivered:
			if err := s.deps.Stock.Consume(ctx, tx, demandsFromLines(order.Lines)); err != nil {
				return err
			}
		}

		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{"status": input.Target}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Target
		result = order

		return s.deps.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderStatusChanged,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderCode:   order.Code,
				FranchiseID: order.FranchiseID,
				FromStatus:  from,
				ToStatus:    order.Status,
				ChangedAt:   s.deps.Now(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.deps.Metrics.IncTransition(input.Target.String())
	return result, nil
}

// validateOrder runs the two gates of the pending to validated step: the
// ratio policy over the current warehouse classifications, then the
// all-or-nothing stock reservation.
func (s *service) validateOrder(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actor Actor) error {
	breakdown, err := s.breakdownForLines(ctx, order.Lines)
	if err != nil {
		return err
	}
	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"total_amount":       breakdown.TotalAmount,
		"network_amount":     breakdown.NetworkAmount,
		"free_market_amount": breakdown.FreeMarketAmount,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order amounts")
	}
	order.TotalAmount = breakdown.TotalAmount
	order.NetworkAmount = breakdown.NetworkAmount
	order.FreeMarketAmount = breakdown.FreeMarketAmount

	if !breakdown.Compliant() {
		return s.complianceViolation(breakdown)
	}

	alerts, err := s.deps.Stock.Reserve(ctx, tx, demandsFromLines(order.Lines))
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			if shortages, ok := typed.Details().([]stockledger.Shortage); ok {
				for _, shortage := range shortages {
					s.deps.Metrics.IncStockShortage(shortage.WarehouseID.String())
				}
			}
		}
		return err
	}

	for _, record := range alerts {
		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventStockAlert,
			AggregateType: enums.OutboxAggregateStockRecord,
			AggregateID:   record.ProductID,
			Version:       1,
			Actor:         buildActor(actor),
			Data: payloads.StockAlertEvent{
				ProductID:      record.ProductID,
				WarehouseID:    record.WarehouseID,
				TotalQuantity:  record.TotalQuantity(),
				AlertThreshold: record.AlertThreshold,
			},
		}
		if err := s.deps.Outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) complianceViolation(breakdown compliance.Breakdown) error {
	s.deps.Metrics.IncComplianceFailure()
	return pkgerrors.New(pkgerrors.CodeComplianceViolation, "network spend below required ratio").
		WithDetails(ComplianceDetail{
			TotalAmount:      breakdown.TotalAmount,
			NetworkAmount:    breakdown.NetworkAmount,
			FreeMarketAmount: breakdown.FreeMarketAmount,
			RatioPercent:     breakdown.RatioPercent().String(),
			RequiredPercent:  compliance.MinimumNetworkPercent.String(),
		})
}

// ensureAvailability is the advisory stock gate on order drafting. It reads
// current availability without reserving, so a validated order can still race
// another and fail its reservation later.
func (s *service) ensureAvailability(ctx context.Context, lines []models.OrderLine) error {
	shortages, err := s.deps.Stock.Check(ctx, nil, demandsFromLines(lines))
	if err != nil {
		return err
	}
	if len(shortages) == 0 {
		return nil
	}
	for _, shortage := range shortages {
		s.deps.Metrics.IncStockShortage(shortage.WarehouseID.String())
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(shortages)
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.deps.Repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := checkOwnership(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetByCode(ctx context.Context, actor Actor, code string) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	order, err := s.deps.Repo.FindOrderByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := checkOwnership(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, franchiseID *uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin() {
		if actor.FranchiseID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "franchise context missing")
		}
		if franchiseID != nil && *franchiseID != *actor.FranchiseID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "franchise not found")
		}
		franchiseID = actor.FranchiseID
	}

	list, err := s.deps.Repo.ListOrders(ctx, franchiseID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ComplianceReport(ctx context.Context, actor Actor, orderID uuid.UUID) (*ComplianceReport, error) {
	order, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	breakdown := compliance.Breakdown{
		TotalAmount:      order.TotalAmount,
		NetworkAmount:    order.NetworkAmount,
		FreeMarketAmount: order.FreeMarketAmount,
	}
	return &ComplianceReport{
		OrderID:           order.ID,
		OrderCode:         order.Code,
		TotalAmount:       breakdown.TotalAmount,
		NetworkAmount:     breakdown.NetworkAmount,
		FreeMarketAmount:  breakdown.FreeMarketAmount,
		RatioPercent:      breakdown.RatioPercent().String(),
		FreeMarketPercent: breakdown.FreeMarketPercent().String(),
		Compliant:         breakdown.Compliant(),
	}, nil
}

// loadOwnedForUpdate locks the order row and applies the ownership rule:
// non-operators get not-found for orders outside their franchise.
func (s *service) loadOwnedForUpdate(ctx context.Context, repo Repository, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := checkOwnership(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func checkOwnership(actor Actor, order *models.Order) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.Operates(order.FranchiseID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func validateLineInputs(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	seen := map[DuplicateLineDetail]bool{}
	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.WarehouseID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line product and warehouse required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		key := DuplicateLineDetail{ProductID: line.ProductID, WarehouseID: line.WarehouseID}
		if seen[key] {
			return pkgerrors.New(pkgerrors.CodeDuplicateLine, "duplicate allocation in order").
				WithDetails(key)
		}
		seen[key] = true
	}
	return nil
}

// resolveLines turns line inputs into order lines with catalog price
// snapshots and computes the monetary split over current warehouse kinds.
func (s *service) resolveLines(ctx context.Context, inputs []LineInput) ([]models.OrderLine, compliance.Breakdown, error) {
	lines := make([]models.OrderLine, 0, len(inputs))
	shares := make([]compliance.LineShare, 0, len(inputs))

	for _, input := range inputs {
		product, err := s.deps.Products.Get(ctx, input.ProductID)
		if err != nil {
			if isNotFound(err) {
				return nil, compliance.Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product").
					WithDetails(input)
			}
			return nil, compliance.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		warehouse, err := s.deps.Warehouses.Get(ctx, input.WarehouseID)
		if err != nil {
			if isNotFound(err) {
				return nil, compliance.Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown warehouse").
					WithDetails(input)
			}
			return nil, compliance.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
		}
		if !warehouse.AcceptsAllocations() {
			return nil, compliance.Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "warehouse is not active").
				WithDetails(input)
		}

		lineTotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		lines = append(lines, models.OrderLine{
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Quantity:    input.Quantity,
			UnitPrice:   product.UnitPrice,
			LineTotal:   lineTotal,
		})
		shares = append(shares, compliance.LineShare{
			Kind:   warehouse.Kind,
			Amount: lineTotal,
		})
	}
	return lines, compliance.Compute(shares), nil
}

// breakdownForLines recomputes the split for persisted lines against the
// warehouses' current classification.
func (s *service) breakdownForLines(ctx context.Context, lines []models.OrderLine) (compliance.Breakdown, error) {
	shares := make([]compliance.LineShare, 0, len(lines))
	for _, line := range lines {
		warehouse, err := s.deps.Warehouses.Get(ctx, line.WarehouseID)
		if err != nil {
			if isNotFound(err) {
				return compliance.Breakdown{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order references removed warehouse")
			}
			return compliance.Breakdown{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
		}
		shares = append(shares, compliance.LineShare{
			Kind:   warehouse.Kind,
			Amount: line.LineTotal,
		})
	}
	return compliance.Compute(shares), nil
}

// isNotFound accepts both raw gorm misses and coded not-found errors so the
// reader interfaces can be backed by repositories or services alike.
func isNotFound(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeNotFound
}

func demandsFromLines(lines []models.OrderLine) []stockledger.Demand {
	demands := make([]stockledger.Demand, 0, len(lines))
	for _, line := range lines {
		demands = append(demands, stockledger.Demand{
			ProductID:   line.ProductID,
			WarehouseID: line.WarehouseID,
			Quantity:    line.Quantity,
		})
	}
	return demands
}

func buildActor(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   actor.Role.String(),
	}
	if actor.FranchiseID != nil {
		franchise := *actor.FranchiseID
		ref.FranchiseID = &franchise
	}
	return ref
}
