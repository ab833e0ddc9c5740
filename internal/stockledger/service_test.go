package stockledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stockledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.StockRecord{}); err != nil {
		t.Fatalf("migrate stock records: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedStock(t *testing.T, db *gorm.DB, productID, warehouseID uuid.UUID, available, reserved, threshold int) {
	t.Helper()
	record := models.StockRecord{
		ProductID:         productID,
		WarehouseID:       warehouseID,
		QuantityAvailable: available,
		QuantityReserved:  reserved,
		AlertThreshold:    threshold,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func loadStock(t *testing.T, db *gorm.DB, productID, warehouseID uuid.UUID) models.StockRecord {
	t.Helper()
	var record models.StockRecord
	if err := db.First(&record, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return record
}

func TestCheckCollectsAllShortages(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	productA := uuid.New()
	productB := uuid.New()
	productC := uuid.New()
	seedStock(t, db, productA, warehouse, 10, 0, 2)
	seedStock(t, db, productB, warehouse, 1, 0, 2)

	shortages, err := svc.Check(ctx, db, []Demand{
		{ProductID: productA, WarehouseID: warehouse, Quantity: 5},
		{ProductID: productB, WarehouseID: warehouse, Quantity: 4},
		{ProductID: productC, WarehouseID: warehouse, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(shortages) != 2 {
		t.Fatalf("expected 2 shortages, got %d", len(shortages))
	}
	for _, shortage := range shortages {
		switch shortage.ProductID {
		case productB:
			if shortage.Requested != 4 || shortage.Available != 1 {
				t.Fatalf("unexpected shortage for product b: %+v", shortage)
			}
		case productC:
			if shortage.Requested != 2 || shortage.Available != 0 {
				t.Fatalf("unexpected shortage for missing row: %+v", shortage)
			}
		default:
			t.Fatalf("unexpected shortage: %+v", shortage)
		}
	}
}

func TestReserveMovesAvailableToReserved(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	productA := uuid.New()
	productB := uuid.New()
	seedStock(t, db, productA, warehouse, 20, 0, 2)
	seedStock(t, db, productB, warehouse, 8, 1, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := svc.Reserve(ctx, tx, []Demand{
			{ProductID: productA, WarehouseID: warehouse, Quantity: 5},
			{ProductID: productB, WarehouseID: warehouse, Quantity: 3},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	recordA := loadStock(t, db, productA, warehouse)
	if recordA.QuantityAvailable != 15 || recordA.QuantityReserved != 5 {
		t.Fatalf("unexpected state for product a: %+v", recordA)
	}
	recordB := loadStock(t, db, productB, warehouse)
	if recordB.QuantityAvailable != 5 || recordB.QuantityReserved != 4 {
		t.Fatalf("unexpected state for product b: %+v", recordB)
	}
}

func TestReserveIsAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	productA := uuid.New()
	productB := uuid.New()
	seedStock(t, db, productA, warehouse, 20, 0, 2)
	seedStock(t, db, productB, warehouse, 2, 0, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := svc.Reserve(ctx, tx, []Demand{
			{ProductID: productA, WarehouseID: warehouse, Quantity: 5},
			{ProductID: productB, WarehouseID: warehouse, Quantity: 3},
		})
		return terr
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	shortages, ok := typed.Details().([]Shortage)
	if !ok || len(shortages) != 1 {
		t.Fatalf("unexpected details: %#v", typed.Details())
	}
	if shortages[0].ProductID != productB || shortages[0].Requested != 3 || shortages[0].Available != 2 {
		t.Fatalf("unexpected shortage: %+v", shortages[0])
	}

	recordA := loadStock(t, db, productA, warehouse)
	if recordA.QuantityAvailable != 20 || recordA.QuantityReserved != 0 {
		t.Fatalf("product a mutated on failed reserve: %+v", recordA)
	}
}

func TestReserveReportsThresholdAlerts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	product := uuid.New()
	seedStock(t, db, product, warehouse, 12, 0, 10)

	var alerts []models.StockRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		alerts, terr = svc.Reserve(ctx, tx, []Demand{
			{ProductID: product, WarehouseID: warehouse, Quantity: 4},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].QuantityAvailable != 8 || alerts[0].AlertThreshold != 10 {
		t.Fatalf("unexpected alert record: %+v", alerts[0])
	}

	// already below threshold, no new alert
	err = db.Transaction(func(tx *gorm.DB) error {
		var terr error
		alerts, terr = svc.Reserve(ctx, tx, []Demand{
			{ProductID: product, WarehouseID: warehouse, Quantity: 2},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no repeat alert, got %d", len(alerts))
	}
}

func TestReleaseRestocksAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	product := uuid.New()
	seedStock(t, db, product, warehouse, 5, 7, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(ctx, tx, []Demand{
			{ProductID: product, WarehouseID: warehouse, Quantity: 7},
		})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	record := loadStock(t, db, product, warehouse)
	if record.QuantityAvailable != 12 || record.QuantityReserved != 0 {
		t.Fatalf("unexpected state after release: %+v", record)
	}
}

func TestConsumeDrainsReservedOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	product := uuid.New()
	seedStock(t, db, product, warehouse, 5, 7, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(ctx, tx, []Demand{
			{ProductID: product, WarehouseID: warehouse, Quantity: 7},
		})
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	record := loadStock(t, db, product, warehouse)
	if record.QuantityAvailable != 5 || record.QuantityReserved != 0 {
		t.Fatalf("unexpected state after consume: %+v", record)
	}
}

func TestConsumeRejectsUnderflow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	product := uuid.New()
	seedStock(t, db, product, warehouse, 5, 2, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Consume(ctx, tx, []Demand{
			{ProductID: product, WarehouseID: warehouse, Quantity: 3},
		})
	})
	if err == nil {
		t.Fatal("expected underflow error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidationRejectsBadDemands(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	cases := [][]Demand{
		nil,
		{{ProductID: uuid.New(), WarehouseID: uuid.New(), Quantity: 0}},
		{{ProductID: uuid.Nil, WarehouseID: uuid.New(), Quantity: 1}},
	}
	for _, demands := range cases {
		if _, err := svc.Check(ctx, db, demands); err == nil {
			t.Fatalf("expected validation error for %+v", demands)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("unexpected error for %+v: %v", demands, err)
		}
	}
}

func TestSetStockCreatesAndUpdates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	product := uuid.New()

	created, err := svc.SetStock(ctx, SetStockInput{
		ProductID:         product,
		WarehouseID:       warehouse,
		QuantityAvailable: 30,
	})
	if err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if created.QuantityAvailable != 30 || created.AlertThreshold != 10 {
		t.Fatalf("unexpected created record: %+v", created)
	}

	threshold := 5
	updated, err := svc.SetStock(ctx, SetStockInput{
		ProductID:         product,
		WarehouseID:       warehouse,
		QuantityAvailable: 12,
		AlertThreshold:    &threshold,
	})
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if updated.QuantityAvailable != 12 || updated.AlertThreshold != 5 {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	record := loadStock(t, db, product, warehouse)
	if record.QuantityAvailable != 12 || record.AlertThreshold != 5 {
		t.Fatalf("unexpected persisted record: %+v", record)
	}
}

func TestListBelowThreshold(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	warehouse := uuid.New()
	low := uuid.New()
	healthy := uuid.New()
	seedStock(t, db, low, warehouse, 3, 0, 10)
	seedStock(t, db, healthy, warehouse, 50, 0, 10)

	records, err := svc.ListBelowThreshold(ctx)
	if err != nil {
		t.Fatalf("list below threshold: %v", err)
	}
	if len(records) != 1 || records[0].ProductID != low {
		t.Fatalf("unexpected alert rows: %+v", records)
	}
}
