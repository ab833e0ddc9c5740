package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Sale{}); err != nil {
		t.Fatalf("migrate sales: %v", err)
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

func franchiseeActor(franchiseID uuid.UUID) Actor {
	return Actor{
		UserID:      uuid.New(),
		FranchiseID: &franchiseID,
		Role:        enums.MemberRoleFranchisee,
	}
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.MemberRoleAdmin}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestRecordComputesRoyalty(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()

	sale, err := svc.Record(context.Background(), RecordSaleInput{
		Actor:            franchiseeActor(franchiseID),
		FranchiseID:      franchiseID,
		SaleDate:         time.Date(2025, 8, 12, 18, 30, 0, 0, time.UTC),
		DailyRevenue:     decimal.RequireFromString("1234.56"),
		TransactionCount: 87,
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}
	if got := sale.RoyaltyDue.String(); got != "49.38" {
		t.Fatalf("expected royalty 49.38, got %s", got)
	}
	if !sale.SaleDate.Equal(time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date truncated to midnight, got %s", sale.SaleDate)
	}
}

func TestRoyaltyRoundsToCents(t *testing.T) {
	cases := map[string]string{
		"0":       "0",
		"100":     "4",
		"250.10":  "10",
		"333.33":  "13.33",
		"0.10":    "0",
		"0.13":    "0.01",
		"1999.99": "80",
	}
	for revenue, want := range cases {
		got := RoyaltyFor(decimal.RequireFromString(revenue)).String()
		if got != want {
			t.Fatalf("royalty on %s: expected %s, got %s", revenue, want, got)
		}
	}
}

func TestRecordRejectsDuplicateDay(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()
	input := RecordSaleInput{
		Actor:        franchiseeActor(franchiseID),
		FranchiseID:  franchiseID,
		SaleDate:     time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		DailyRevenue: decimal.RequireFromString("500"),
	}

	if _, err := svc.Record(context.Background(), input); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := svc.Record(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestRecordRejectsNegativeRevenue(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()

	_, err := svc.Record(context.Background(), RecordSaleInput{
		Actor:        franchiseeActor(franchiseID),
		FranchiseID:  franchiseID,
		SaleDate:     time.Now(),
		DailyRevenue: decimal.RequireFromString("-1"),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestRecordHidesForeignFranchise(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Record(context.Background(), RecordSaleInput{
		Actor:        franchiseeActor(uuid.New()),
		FranchiseID:  uuid.New(),
		SaleDate:     time.Now(),
		DailyRevenue: decimal.RequireFromString("100"),
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestSummaryAggregatesPeriod(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()
	actor := franchiseeActor(franchiseID)

	for day, revenue := range map[int]string{10: "1000", 11: "1500.50", 12: "800"} {
		_, err := svc.Record(context.Background(), RecordSaleInput{
			Actor:        actor,
			FranchiseID:  franchiseID,
			SaleDate:     time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC),
			DailyRevenue: decimal.RequireFromString(revenue),
		})
		if err != nil {
			t.Fatalf("record day %d: %v", day, err)
		}
	}

	summary, err := svc.Summary(context.Background(), ListSalesInput{
		Actor:       actor,
		FranchiseID: franchiseID,
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DayCount != 3 {
		t.Fatalf("expected 3 days, got %d", summary.DayCount)
	}
	if got := summary.TotalRevenue.String(); got != "3300.5" {
		t.Fatalf("expected revenue 3300.5, got %s", got)
	}
	if got := summary.TotalRoyalty.String(); got != "132.02" {
		t.Fatalf("expected royalty 132.02, got %s", got)
	}
}

func TestSummaryHonorsDateWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()
	actor := franchiseeActor(franchiseID)

	for day := 1; day <= 5; day++ {
		_, err := svc.Record(context.Background(), RecordSaleInput{
			Actor:        actor,
			FranchiseID:  franchiseID,
			SaleDate:     time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC),
			DailyRevenue: decimal.RequireFromString("100"),
		})
		if err != nil {
			t.Fatalf("record day %d: %v", day, err)
		}
	}

	from := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
	summary, err := svc.Summary(context.Background(), ListSalesInput{
		Actor:       actor,
		FranchiseID: franchiseID,
		From:        &from,
		To:          &to,
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DayCount != 2 {
		t.Fatalf("expected 2 days inside window, got %d", summary.DayCount)
	}
}

func TestGetScopesToFranchise(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()

	sale, err := svc.Record(context.Background(), RecordSaleInput{
		Actor:        franchiseeActor(franchiseID),
		FranchiseID:  franchiseID,
		SaleDate:     time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		DailyRevenue: decimal.RequireFromString("200"),
	})
	if err != nil {
		t.Fatalf("record sale: %v", err)
	}

	if _, err := svc.Get(context.Background(), adminActor(), sale.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	_, err = svc.Get(context.Background(), franchiseeActor(uuid.New()), sale.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	franchiseID := uuid.New()
	actor := franchiseeActor(franchiseID)

	for day := 1; day <= 3; day++ {
		_, err := svc.Record(context.Background(), RecordSaleInput{
			Actor:        actor,
			FranchiseID:  franchiseID,
			SaleDate:     time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC),
			DailyRevenue: decimal.RequireFromString("100"),
		})
		if err != nil {
			t.Fatalf("record day %d: %v", day, err)
		}
	}

	sales, err := svc.List(context.Background(), ListSalesInput{Actor: actor, FranchiseID: franchiseID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sales) != 3 {
		t.Fatalf("expected 3 sales, got %d", len(sales))
	}
	if !sales[0].SaleDate.After(sales[2].SaleDate) {
		t.Fatalf("expected most recent first, got %s before %s", sales[0].SaleDate, sales[2].SaleDate)
	}
}
