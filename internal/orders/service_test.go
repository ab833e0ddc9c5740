package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/internal/ordercode"
	"github.com/drivncook/supply-backend/internal/stockledger"
	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
	"github.com/drivncook/supply-backend/pkg/metrics"
	"github.com/drivncook/supply-backend/pkg/outbox"
	"github.com/drivncook/supply-backend/pkg/pagination"
)

type dbTx struct {
	db *gorm.DB
}

func (d dbTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.db.Transaction(fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutbox) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	out := []outbox.DomainEvent{}
	for _, event := range r.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type gormFranchises struct{ db *gorm.DB }

func (g gormFranchises) Get(ctx context.Context, id uuid.UUID) (*models.Franchise, error) {
	var franchise models.Franchise
	if err := g.db.WithContext(ctx).First(&franchise, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &franchise, nil
}

type gormProducts struct{ db *gorm.DB }

func (g gormProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := g.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type gormWarehouses struct{ db *gorm.DB }

func (g gormWarehouses) Get(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := g.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

type harness struct {
	db        *gorm.DB
	svc       Service
	outbox    *recordingOutbox
	franchise models.Franchise
	networkWH models.Warehouse
	freeWH    models.Warehouse
	productA  models.Product
	productB  models.Product
	owner     Actor
	admin     Actor
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Franchise{},
		&models.Product{},
		&models.Warehouse{},
		&models.StockRecord{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	franchise := models.Franchise{
		ID:          uuid.New(),
		Name:        "Food Truck Bastille",
		Address:     "12 rue de la Roquette",
		City:        "Paris",
		PostalCode:  "75011",
		OwnerUserID: uuid.New(),
	}
	networkWH := models.Warehouse{
		ID:     uuid.New(),
		Name:   "Entrepot Ivry",
		Kind:   enums.WarehouseKindNetwork,
		Status: enums.WarehouseStatusActive,
	}
	freeWH := models.Warehouse{
		ID:     uuid.New(),
		Name:   "Marche Rungis",
		Kind:   enums.WarehouseKindFreeMarket,
		Status: enums.WarehouseStatusActive,
	}
	productA := models.Product{
		ID:        uuid.New(),
		Name:      "Steak hache",
		Category:  "viande",
		UnitPrice: decimal.RequireFromString("10.00"),
		Unit:      enums.ProductUnitKilogram,
	}
	productB := models.Product{
		ID:        uuid.New(),
		Name:      "Pain burger",
		Category:  "boulangerie",
		UnitPrice: decimal.RequireFromString("5.50"),
		Unit:      enums.ProductUnitPiece,
	}
	for _, seed := range []any{&franchise, &networkWH, &freeWH, &productA, &productB} {
		if err := db.Create(seed).Error; err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}

	stockSvc, err := stockledger.NewService(stockledger.NewRepository(db))
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	codes, err := ordercode.NewGenerator(ordercode.NewRepository(db))
	if err != nil {
		t.Fatalf("code generator: %v", err)
	}
	box := &recordingOutbox{}
	now := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)

	svc, err := NewService(ServiceDeps{
		Repo:       NewRepository(db),
		Tx:         dbTx{db: db},
		Codes:      codes,
		Stock:      stockSvc,
		Outbox:     box,
		Franchises: gormFranchises{db: db},
		Products:   gormProducts{db: db},
		Warehouses: gormWarehouses{db: db},
		Metrics:    metrics.NewOrderMetrics(prometheus.NewRegistry()),
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	franchiseID := franchise.ID
	return &harness{
		db:        db,
		svc:       svc,
		outbox:    box,
		franchise: franchise,
		networkWH: networkWH,
		freeWH:    freeWH,
		productA:  productA,
		productB:  productB,
		owner:     Actor{UserID: franchise.OwnerUserID, FranchiseID: &franchiseID, Role: enums.MemberRoleFranchisee},
		admin:     Actor{UserID: uuid.New(), Role: enums.MemberRoleAdmin},
		now:       now,
	}
}

func (h *harness) seedStock(t *testing.T, productID, warehouseID uuid.UUID, available int) {
	t.Helper()
	record := models.StockRecord{
		ProductID:         productID,
		WarehouseID:       warehouseID,
		QuantityAvailable: available,
		AlertThreshold:    10,
	}
	if err := h.db.Create(&record).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func (h *harness) stock(t *testing.T, productID, warehouseID uuid.UUID) models.StockRecord {
	t.Helper()
	var record models.StockRecord
	if err := h.db.First(&record, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return record
}

// createCompliantOrder opens a pending order worth 50 network / 10 free
// market, the canonical 83.3% split.
func (h *harness) createCompliantOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := h.svc.Create(context.Background(), CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 5},
			{ProductID: h.productA.ID, WarehouseID: h.freeWH.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	return typed
}

func TestCreateOrderIssuesCodeAndSnapshotsPrices(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 10)
	h.seedStock(t, h.productB.ID, h.freeWH.ID, 5)

	order, err := h.svc.Create(ctx, CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 4},
			{ProductID: h.productB.ID, WarehouseID: h.freeWH.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Code != "CMD-20250812-0001" {
		t.Fatalf("unexpected code: %s", order.Code)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.DeliveryAddress != "12 rue de la Roquette, 75011 Paris" {
		t.Fatalf("unexpected delivery address: %q", order.DeliveryAddress)
	}
	if got := order.TotalAmount.String(); got != "45.5" {
		t.Fatalf("unexpected total: %s", got)
	}
	if got := order.NetworkAmount.String(); got != "40" {
		t.Fatalf("unexpected network amount: %s", got)
	}
	if got := order.FreeMarketAmount.String(); got != "5.5" {
		t.Fatalf("unexpected free market amount: %s", got)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}
	for _, line := range order.Lines {
		if line.ProductID == h.productA.ID && line.UnitPrice.String() != "10" {
			t.Fatalf("price snapshot missing on line: %+v", line)
		}
	}

	// later catalog price changes never alter the stored snapshot
	if err := h.db.Model(&models.Product{}).
		Where("id = ?", h.productA.ID).
		Update("unit_price", decimal.RequireFromString("99.99")).Error; err != nil {
		t.Fatalf("reprice product: %v", err)
	}
	reloaded, err := h.svc.Get(ctx, h.owner, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got := reloaded.TotalAmount.String(); got != "45.5" {
		t.Fatalf("total drifted after reprice: %s", got)
	}

	created := h.outbox.byType(enums.OutboxEventOrderCreated)
	if len(created) != 1 || created[0].AggregateID != order.ID {
		t.Fatalf("expected one order.created event, got %+v", created)
	}

	second, err := h.svc.Create(ctx, CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}
	if second.Code != "CMD-20250812-0002" {
		t.Fatalf("expected sequence to advance, got %s", second.Code)
	}
}

func TestCreateRejectsDuplicateAllocation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 2},
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 3},
		},
	})
	typed := expectCode(t, err, pkgerrors.CodeDuplicateLine)
	detail, ok := typed.Details().(DuplicateLineDetail)
	if !ok || detail.ProductID != h.productA.ID || detail.WarehouseID != h.networkWH.ID {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}
}

func TestCreateHidesForeignFranchise(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	other := models.Franchise{ID: uuid.New(), Name: "Other", OwnerUserID: uuid.New()}
	if err := h.db.Create(&other).Error; err != nil {
		t.Fatalf("seed franchise: %v", err)
	}

	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: other.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
		},
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateRejectsInactiveWarehouse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.db.Model(&models.Warehouse{}).
		Where("id = ?", h.networkWH.ID).
		Update("status", enums.WarehouseStatusMaintenance).Error; err != nil {
		t.Fatalf("close warehouse: %v", err)
	}

	_, err := h.svc.Create(context.Background(), CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
		},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateReservesStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	validated, err := h.svc.Transition(ctx, TransitionInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Target:  enums.OrderStatusValidated,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.Status != enums.OrderStatusValidated {
		t.Fatalf("expected validated, got %s", validated.Status)
	}

	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 15 || network.QuantityReserved != 5 {
		t.Fatalf("unexpected network stock: %+v", network)
	}
	free := h.stock(t, h.productA.ID, h.freeWH.ID)
	if free.QuantityAvailable != 19 || free.QuantityReserved != 1 {
		t.Fatalf("unexpected free market stock: %+v", free)
	}

	changed := h.outbox.byType(enums.OutboxEventOrderStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("expected one status event, got %d", len(changed))
	}
}

func TestCreateRejectsNonCompliantSplit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 100)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 100)

	// 10 network / 40 free market, 20% ratio
	_, err := h.svc.Create(ctx, CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
			{ProductID: h.productA.ID, WarehouseID: h.freeWH.ID, Quantity: 4},
		},
	})
	typed := expectCode(t, err, pkgerrors.CodeComplianceViolation)
	detail, ok := typed.Details().(ComplianceDetail)
	if !ok {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}
	if detail.RatioPercent != "20" || detail.RequiredPercent != "80" {
		t.Fatalf("unexpected ratio detail: %+v", detail)
	}

	var count int64
	if err := h.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected order persisted: %d rows", count)
	}
	if len(h.outbox.events) != 0 {
		t.Fatalf("rejected order emitted events: %+v", h.outbox.events)
	}
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 3)
	// no stock row at all for the free market line

	_, err := h.svc.Create(ctx, CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 5},
			{ProductID: h.productA.ID, WarehouseID: h.freeWH.ID, Quantity: 1},
		},
	})
	typed := expectCode(t, err, pkgerrors.CodeInsufficientStock)
	shortages, ok := typed.Details().([]stockledger.Shortage)
	if !ok || len(shortages) != 2 {
		t.Fatalf("expected 2 shortages, got %#v", typed.Details())
	}
	for _, shortage := range shortages {
		switch shortage.WarehouseID {
		case h.networkWH.ID:
			if shortage.Requested != 5 || shortage.Available != 3 {
				t.Fatalf("unexpected network shortage: %+v", shortage)
			}
		case h.freeWH.ID:
			if shortage.Requested != 1 || shortage.Available != 0 {
				t.Fatalf("unexpected free market shortage: %+v", shortage)
			}
		default:
			t.Fatalf("shortage for unknown warehouse: %+v", shortage)
		}
	}

	var count int64
	if err := h.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected order persisted: %d rows", count)
	}
	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 3 || network.QuantityReserved != 0 {
		t.Fatalf("stock mutated on rejected create: %+v", network)
	}
}

func TestValidateRejectsNonCompliantOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 100)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 100)
	order := h.createCompliantOrder(t)

	// the network warehouse is reclassified between creation and validation,
	// so the recomputed split is 0 network / 60 free market
	if err := h.db.Model(&models.Warehouse{}).
		Where("id = ?", h.networkWH.ID).
		Update("kind", enums.WarehouseKindFreeMarket).Error; err != nil {
		t.Fatalf("reclassify warehouse: %v", err)
	}

	_, err := h.svc.Transition(ctx, TransitionInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Target:  enums.OrderStatusValidated,
	})
	typed := expectCode(t, err, pkgerrors.CodeComplianceViolation)
	detail, ok := typed.Details().(ComplianceDetail)
	if !ok {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}
	if detail.RatioPercent != "0" || detail.RequiredPercent != "80" {
		t.Fatalf("unexpected ratio detail: %+v", detail)
	}

	reloaded, err := h.svc.Get(ctx, h.owner, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPending {
		t.Fatalf("status changed on failed validation: %s", reloaded.Status)
	}
	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityReserved != 0 {
		t.Fatalf("stock reserved on failed validation: %+v", network)
	}
}

func TestValidateExactlyEightyPercentPasses(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 100)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 100)

	// 40 network / 10 free market, exactly 80%
	order, err := h.svc.Create(ctx, CreateOrderInput{
		Actor:       h.owner,
		FranchiseID: h.franchise.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 4},
			{ProductID: h.productA.ID, WarehouseID: h.freeWH.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	validated, err := h.svc.Transition(ctx, TransitionInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Target:  enums.OrderStatusValidated,
	})
	if err != nil {
		t.Fatalf("validate at exact threshold: %v", err)
	}
	if validated.Status != enums.OrderStatusValidated {
		t.Fatalf("expected validated, got %s", validated.Status)
	}
}

func TestValidateCollectsAllShortages(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	// stock drains between creation and validation, on both lines
	if err := h.db.Model(&models.StockRecord{}).
		Where("product_id = ? AND warehouse_id = ?", h.productA.ID, h.networkWH.ID).
		Update("quantity_available", 3).Error; err != nil {
		t.Fatalf("drain network stock: %v", err)
	}
	if err := h.db.Model(&models.StockRecord{}).
		Where("product_id = ? AND warehouse_id = ?", h.productA.ID, h.freeWH.ID).
		Update("quantity_available", 0).Error; err != nil {
		t.Fatalf("drain free market stock: %v", err)
	}

	_, err := h.svc.Transition(ctx, TransitionInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Target:  enums.OrderStatusValidated,
	})
	typed := expectCode(t, err, pkgerrors.CodeInsufficientStock)
	shortages, ok := typed.Details().([]stockledger.Shortage)
	if !ok || len(shortages) != 2 {
		t.Fatalf("expected 2 shortages, got %#v", typed.Details())
	}

	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 3 || network.QuantityReserved != 0 {
		t.Fatalf("stock mutated on failed reserve: %+v", network)
	}
}

func TestCancelValidatedReleasesStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusValidated}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 20 || network.QuantityReserved != 0 {
		t.Fatalf("stock not released: %+v", network)
	}
}

func TestCancelPendingTouchesNoStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 20 || network.QuantityReserved != 0 {
		t.Fatalf("stock touched cancelling a pending order: %+v", network)
	}
}

func TestDeliverConsumesReservedOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	steps := []struct {
		actor  Actor
		target enums.OrderStatus
	}{
		{h.owner, enums.OrderStatusValidated},
		{h.admin, enums.OrderStatusPrepared},
		{h.admin, enums.OrderStatusDelivered},
	}
	for _, step := range steps {
		if _, err := h.svc.Transition(ctx, TransitionInput{Actor: step.actor, OrderID: order.ID, Target: step.target}); err != nil {
			t.Fatalf("transition to %s: %v", step.target, err)
		}
	}

	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityAvailable != 15 || network.QuantityReserved != 0 {
		t.Fatalf("unexpected stock after delivery: %+v", network)
	}
	free := h.stock(t, h.productA.ID, h.freeWH.ID)
	if free.QuantityAvailable != 19 || free.QuantityReserved != 0 {
		t.Fatalf("unexpected free market stock after delivery: %+v", free)
	}

	changed := h.outbox.byType(enums.OutboxEventOrderStatusChanged)
	if len(changed) != 3 {
		t.Fatalf("expected 3 status events, got %d", len(changed))
	}
}

func TestPrepareAndDeliverRequireOperator(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusValidated}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusPrepared})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	// pending straight to delivered
	_, err := h.svc.Transition(ctx, TransitionInput{Actor: h.admin, OrderID: order.ID, Target: enums.OrderStatusDelivered})
	typed := expectCode(t, err, pkgerrors.CodeStateConflict)
	detail, ok := typed.Details().(TransitionDetail)
	if !ok || detail.From != enums.OrderStatusPending || detail.To != enums.OrderStatusDelivered {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}

	// prepared orders cannot be cancelled
	for _, step := range []struct {
		actor  Actor
		target enums.OrderStatus
	}{
		{h.owner, enums.OrderStatusValidated},
		{h.admin, enums.OrderStatusPrepared},
	} {
		if _, err := h.svc.Transition(ctx, TransitionInput{Actor: step.actor, OrderID: order.ID, Target: step.target}); err != nil {
			t.Fatalf("transition to %s: %v", step.target, err)
		}
	}
	_, err = h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusCancelled})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSameStatusTransitionRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusValidated}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusValidated})
	typed := expectCode(t, err, pkgerrors.CodeStateConflict)
	detail, ok := typed.Details().(TransitionDetail)
	if !ok || detail.From != enums.OrderStatusValidated || detail.To != enums.OrderStatusValidated {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}

	// the rejected repeat never touches the reservation
	network := h.stock(t, h.productA.ID, h.networkWH.ID)
	if network.QuantityReserved != 5 {
		t.Fatalf("reservation repeated: %+v", network)
	}
	changed := h.outbox.byType(enums.OutboxEventOrderStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("expected one status event, got %d", len(changed))
	}
}

func TestReplaceLinesOnlyWhilePending(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	h.seedStock(t, h.productB.ID, h.networkWH.ID, 20)
	order := h.createCompliantOrder(t)

	updated, err := h.svc.ReplaceLines(ctx, ReplaceLinesInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Lines: []LineInput{
			{ProductID: h.productB.ID, WarehouseID: h.networkWH.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("replace lines: %v", err)
	}
	if len(updated.Lines) != 1 || updated.TotalAmount.String() != "22" {
		t.Fatalf("unexpected replaced order: total=%s lines=%d", updated.TotalAmount, len(updated.Lines))
	}

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: order.ID, Target: enums.OrderStatusValidated}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err = h.svc.ReplaceLines(ctx, ReplaceLinesInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
		},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestReplaceLinesRevalidatesLikeCreate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	// 10 network / 40 free market, 20% ratio
	_, err := h.svc.ReplaceLines(ctx, ReplaceLinesInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Lines: []LineInput{
			{ProductID: h.productA.ID, WarehouseID: h.networkWH.ID, Quantity: 1},
			{ProductID: h.productA.ID, WarehouseID: h.freeWH.ID, Quantity: 4},
		},
	})
	expectCode(t, err, pkgerrors.CodeComplianceViolation)

	// a product never stocked at the warehouse
	_, err = h.svc.ReplaceLines(ctx, ReplaceLinesInput{
		Actor:   h.owner,
		OrderID: order.ID,
		Lines: []LineInput{
			{ProductID: h.productB.ID, WarehouseID: h.networkWH.ID, Quantity: 2},
		},
	})
	typed := expectCode(t, err, pkgerrors.CodeInsufficientStock)
	shortages, ok := typed.Details().([]stockledger.Shortage)
	if !ok || len(shortages) != 1 || shortages[0].Available != 0 {
		t.Fatalf("unexpected shortages: %#v", typed.Details())
	}

	// both rejections leave the original lines in place
	reloaded, err := h.svc.Get(ctx, h.owner, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if len(reloaded.Lines) != 2 || reloaded.TotalAmount.String() != "60" {
		t.Fatalf("lines changed on rejected replace: total=%s lines=%d", reloaded.TotalAmount, len(reloaded.Lines))
	}
}

func TestDeleteOnlyPendingOrCancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)

	pending := h.createCompliantOrder(t)
	if err := h.svc.Delete(ctx, DeleteOrderInput{Actor: h.owner, OrderID: pending.ID}); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if _, err := h.svc.Get(ctx, h.owner, pending.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected deleted order to vanish, got %v", err)
	}
	deleted := h.outbox.byType(enums.OutboxEventOrderDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected one delete event, got %d", len(deleted))
	}

	validated := h.createCompliantOrder(t)
	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: validated.ID, Target: enums.OrderStatusValidated}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	err := h.svc.Delete(ctx, DeleteOrderInput{Actor: h.owner, OrderID: validated.ID})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	if _, err := h.svc.Transition(ctx, TransitionInput{Actor: h.owner, OrderID: validated.ID, Target: enums.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := h.svc.Delete(ctx, DeleteOrderInput{Actor: h.owner, OrderID: validated.ID}); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
}

func TestOwnershipHidesForeignOrders(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	otherFranchise := models.Franchise{ID: uuid.New(), Name: "Other", OwnerUserID: uuid.New()}
	if err := h.db.Create(&otherFranchise).Error; err != nil {
		t.Fatalf("seed franchise: %v", err)
	}
	otherID := otherFranchise.ID
	stranger := Actor{UserID: otherFranchise.OwnerUserID, FranchiseID: &otherID, Role: enums.MemberRoleFranchisee}

	if _, err := h.svc.Get(ctx, stranger, order.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	_, err := h.svc.Transition(ctx, TransitionInput{Actor: stranger, OrderID: order.ID, Target: enums.OrderStatusValidated})
	expectCode(t, err, pkgerrors.CodeNotFound)

	// admins see everything
	if _, err := h.svc.Get(ctx, h.admin, order.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
}

func TestListScopesToFranchise(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)

	for i := 0; i < 3; i++ {
		h.createCompliantOrder(t)
	}

	otherFranchise := models.Franchise{ID: uuid.New(), Name: "Other", OwnerUserID: uuid.New()}
	if err := h.db.Create(&otherFranchise).Error; err != nil {
		t.Fatalf("seed franchise: %v", err)
	}
	foreign := models.Order{
		ID:          uuid.New(),
		Code:        "CMD-20250812-9999",
		FranchiseID: otherFranchise.ID,
		Status:      enums.OrderStatusPending,
	}
	if err := h.db.Create(&foreign).Error; err != nil {
		t.Fatalf("seed foreign order: %v", err)
	}

	list, err := h.svc.List(ctx, h.owner, nil, pagination.Params{}, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(list.Orders))
	}
	for _, summary := range list.Orders {
		if summary.FranchiseID != h.franchise.ID {
			t.Fatalf("foreign order leaked: %+v", summary)
		}
	}

	adminList, err := h.svc.List(ctx, h.admin, nil, pagination.Params{}, ListFilters{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList.Orders) != 4 {
		t.Fatalf("expected 4 orders for admin, got %d", len(adminList.Orders))
	}
}

func TestComplianceReportValues(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	h.seedStock(t, h.productA.ID, h.networkWH.ID, 20)
	h.seedStock(t, h.productA.ID, h.freeWH.ID, 20)
	order := h.createCompliantOrder(t)

	report, err := h.svc.ComplianceReport(ctx, h.owner, order.ID)
	if err != nil {
		t.Fatalf("compliance report: %v", err)
	}
	if report.OrderCode != order.Code {
		t.Fatalf("unexpected code: %s", report.OrderCode)
	}
	if report.TotalAmount.String() != "60" {
		t.Fatalf("unexpected total: %s", report.TotalAmount)
	}
	if report.RatioPercent != "83.3" {
		t.Fatalf("unexpected ratio: %s", report.RatioPercent)
	}
	if report.FreeMarketPercent != "16.7" {
		t.Fatalf("unexpected free market percent: %s", report.FreeMarketPercent)
	}
	if !report.Compliant {
		t.Fatal("expected compliant report")
	}
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		order := models.Order{
			ID:          uuid.New(),
			Code:        fmt.Sprintf("CMD-20250811-%04d", i+1),
			FranchiseID: h.franchise.ID,
			Status:      enums.OrderStatusPending,
			CreatedAt:   h.now.Add(time.Duration(i) * time.Minute),
		}
		if err := h.db.Create(&order).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	first, err := h.svc.List(ctx, h.owner, nil, pagination.Params{Limit: 2}, ListFilters{})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Orders) != 2 || first.NextCursor == "" {
		t.Fatalf("unexpected first page: %d orders, cursor=%q", len(first.Orders), first.NextCursor)
	}

	second, err := h.svc.List(ctx, h.owner, nil, pagination.Params{Limit: 2, Cursor: first.NextCursor}, ListFilters{})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Orders) != 2 {
		t.Fatalf("unexpected second page size: %d", len(second.Orders))
	}
	if second.Orders[0].ID == first.Orders[0].ID {
		t.Fatal("pages overlap")
	}
}
