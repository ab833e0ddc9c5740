package stockledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

// Demand asks for a quantity of one product from one warehouse.
type Demand struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
}

// Shortage reports one demand that available stock cannot cover. A missing
// stock row counts as zero available.
type Shortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Service defines the reserve/release/consume operations on stock records.
// The mutating operations run inside the caller's transaction so stock moves
// commit together with the order state that justified them.
type Service interface {
	Check(ctx context.Context, tx *gorm.DB, demands []Demand) ([]Shortage, error)
	Reserve(ctx context.Context, tx *gorm.DB, demands []Demand) ([]models.StockRecord, error)
	Release(ctx context.Context, tx *gorm.DB, demands []Demand) error
	Consume(ctx context.Context, tx *gorm.DB, demands []Demand) error
	SetStock(ctx context.Context, input SetStockInput) (*models.StockRecord, error)
	Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.StockRecord, error)
	ListBelowThreshold(ctx context.Context) ([]models.StockRecord, error)
}

// SetStockInput replaces the counts for one (product, warehouse) pair.
type SetStockInput struct {
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	QuantityAvailable int       `json:"quantity_available"`
	AlertThreshold    *int      `json:"alert_threshold,omitempty"`
}

type service struct {
	repo Repository
}

// NewService wires a stock ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

func validateDemands(demands []Demand) error {
	if len(demands) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one demand is required")
	}
	for _, d := range demands {
		if d.ProductID == uuid.Nil || d.WarehouseID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "demand product and warehouse are required")
		}
		if d.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "demand quantity must be positive")
		}
	}
	return nil
}

// sortedDemands returns a copy ordered by (product, warehouse) so row locks
// are always taken in the same order.
func sortedDemands(demands []Demand) []Demand {
	out := make([]Demand, len(demands))
	copy(out, demands)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProductID != b.ProductID {
			return a.ProductID.String() < b.ProductID.String()
		}
		return a.WarehouseID.String() < b.WarehouseID.String()
	})
	return out
}

// Check reports every demand the warehouses cannot cover. It never mutates
// stock; callers get the full shortage list rather than the first failure.
func (s *service) Check(ctx context.Context, tx *gorm.DB, demands []Demand) ([]Shortage, error) {
	if err := validateDemands(demands); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	shortages := []Shortage{}
	for _, d := range demands {
		record, err := repo.Get(ctx, d.ProductID, d.WarehouseID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
		}
		available := 0
		if record != nil {
			available = record.QuantityAvailable
		}
		if available < d.Quantity {
			shortages = append(shortages, Shortage{
				ProductID:   d.ProductID,
				WarehouseID: d.WarehouseID,
				Requested:   d.Quantity,
				Available:   available,
			})
		}
	}
	return shortages, nil
}

// Reserve moves quantities from available to reserved for every demand, all
// or nothing. On shortage it fails with the complete shortage list in the
// error details. It returns the records that dropped to or under their alert
// threshold during this reservation.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, demands []Demand) ([]models.StockRecord, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateDemands(demands); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	ordered := sortedDemands(demands)
	records := make([]*models.StockRecord, len(ordered))
	shortages := []Shortage{}
	for i, d := range ordered {
		record, err := repo.GetForUpdate(ctx, d.ProductID, d.WarehouseID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking stock record")
		}
		available := 0
		if record != nil {
			available = record.QuantityAvailable
		}
		if available < d.Quantity {
			shortages = append(shortages, Shortage{
				ProductID:   d.ProductID,
				WarehouseID: d.WarehouseID,
				Requested:   d.Quantity,
				Available:   available,
			})
			continue
		}
		records[i] = record
	}
	if len(shortages) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(shortages)
	}

	alerts := []models.StockRecord{}
	for i, d := range ordered {
		record := records[i]
		wasBelow := record.BelowThreshold()
		record.QuantityAvailable -= d.Quantity
		record.QuantityReserved += d.Quantity
		if err := repo.Save(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving stock record")
		}
		if !wasBelow && record.BelowThreshold() {
			alerts = append(alerts, *record)
		}
	}
	return alerts, nil
}

// Release returns reserved quantities to available, used when a validated
// order is cancelled before delivery.
func (s *service) Release(ctx context.Context, tx *gorm.DB, demands []Demand) error {
	return s.drainReserved(ctx, tx, demands, true)
}

// Consume removes reserved quantities for good, used at delivery.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, demands []Demand) error {
	return s.drainReserved(ctx, tx, demands, false)
}

func (s *service) drainReserved(ctx context.Context, tx *gorm.DB, demands []Demand, restock bool) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := validateDemands(demands); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	for _, d := range sortedDemands(demands) {
		record, err := repo.GetForUpdate(ctx, d.ProductID, d.WarehouseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking stock record")
		}
		if record == nil || record.QuantityReserved < d.Quantity {
			return pkgerrors.New(pkgerrors.CodeInternal, "stock reservation underflow").
				WithDetails(Shortage{
					ProductID:   d.ProductID,
					WarehouseID: d.WarehouseID,
					Requested:   d.Quantity,
					Available:   reservedQty(record),
				})
		}
		record.QuantityReserved -= d.Quantity
		if restock {
			record.QuantityAvailable += d.Quantity
		}
		if err := repo.Save(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving stock record")
		}
	}
	return nil
}

func reservedQty(record *models.StockRecord) int {
	if record == nil {
		return 0
	}
	return record.QuantityReserved
}

// SetStock replaces the available count (and optionally the alert threshold)
// for one pair, creating the row when it does not exist yet. Reserved stock
// is never touched here.
func (s *service) SetStock(ctx context.Context, input SetStockInput) (*models.StockRecord, error) {
	if input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}
	if input.QuantityAvailable < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if input.AlertThreshold != nil && *input.AlertThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alert threshold must not be negative")
	}

	existing, err := s.repo.Get(ctx, input.ProductID, input.WarehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
	}

	record := &models.StockRecord{
		ProductID:         input.ProductID,
		WarehouseID:       input.WarehouseID,
		QuantityAvailable: input.QuantityAvailable,
		AlertThreshold:    10,
	}
	if existing != nil {
		record.QuantityReserved = existing.QuantityReserved
		record.AlertThreshold = existing.AlertThreshold
		record.CreatedAt = existing.CreatedAt
	}
	if input.AlertThreshold != nil {
		record.AlertThreshold = *input.AlertThreshold
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upserting stock record")
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*models.StockRecord, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}
	record, err := s.repo.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock record not found")
	}
	return record, nil
}

func (s *service) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.StockRecord, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse is required")
	}
	records, err := s.repo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock records")
	}
	return records, nil
}

func (s *service) ListBelowThreshold(ctx context.Context) ([]models.StockRecord, error) {
	records, err := s.repo.ListBelowThreshold(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock alerts")
	}
	return records, nil
}
