package ordercode

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/drivncook/supply-backend/pkg/db/models"
	"github.com/drivncook/supply-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ordercode_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderLine{}); err != nil {
		t.Fatalf("migrate orders: %v", err)
	}
	return db
}

func createOrderWithCode(t *testing.T, tx *gorm.DB, code string) {
	t.Helper()
	order := models.Order{
		ID:          uuid.New(),
		Code:        code,
		FranchiseID: uuid.New(),
		Status:      enums.OrderStatusPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		t.Fatalf("create order %s: %v", code, err)
	}
}

func TestFormatAndParseSequence(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)
	code := Format(day, 7)
	if code != "CMD-20250812-0007" {
		t.Fatalf("unexpected code: %s", code)
	}

	seq, err := ParseSequence(code)
	if err != nil {
		t.Fatalf("parse sequence: %v", err)
	}
	if seq != 7 {
		t.Fatalf("expected seq 7, got %d", seq)
	}

	// five digit sequences parse too
	seq, err = ParseSequence("CMD-20250812-10001")
	if err != nil {
		t.Fatalf("parse long sequence: %v", err)
	}
	if seq != 10001 {
		t.Fatalf("expected seq 10001, got %d", seq)
	}

	for _, bad := range []string{"", "CMD-20250812", "ORD-20250812-0001", "CMD-2025081-0001", "CMD-20250812-0000", "CMD-20250812-abcd"} {
		if _, err := ParseSequence(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestNextStartsAtOneAndIncrements(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gen, err := NewGenerator(NewRepository(db))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	ctx := context.Background()
	day := time.Date(2025, 8, 12, 9, 30, 0, 0, time.UTC)

	for i := 1; i <= 100; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			code, terr := gen.Next(ctx, tx, day)
			if terr != nil {
				return terr
			}
			want := fmt.Sprintf("CMD-20250812-%04d", i)
			if code != want {
				t.Fatalf("expected %s, got %s", want, code)
			}
			createOrderWithCode(t, tx, code)
			return nil
		})
		if err != nil {
			t.Fatalf("issue code %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Model(&models.Order{}).Distinct("code").Count(&count).Error; err != nil {
		t.Fatalf("count codes: %v", err)
	}
	if count != 100 {
		t.Fatalf("expected 100 distinct codes, got %d", count)
	}
}

func TestNextResetsSequenceEachDay(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gen, err := NewGenerator(NewRepository(db))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	ctx := context.Background()

	dayOne := time.Date(2025, 8, 12, 23, 59, 0, 0, time.UTC)
	dayTwo := time.Date(2025, 8, 13, 0, 1, 0, 0, time.UTC)

	err = db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < 3; i++ {
			code, terr := gen.Next(ctx, tx, dayOne)
			if terr != nil {
				return terr
			}
			createOrderWithCode(t, tx, code)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("issue day one codes: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		code, terr := gen.Next(ctx, tx, dayTwo)
		if terr != nil {
			return terr
		}
		if code != "CMD-20250813-0001" {
			t.Fatalf("expected day two sequence to restart, got %s", code)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("issue day two code: %v", err)
	}
}

// stubRepository drives the exists-probe retry path directly.
type stubRepository struct {
	mu     sync.Mutex
	last   string
	issued map[string]bool
}

func (s *stubRepository) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepository) LastCode(ctx context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.HasPrefix(s.last, prefix) {
		return s.last, nil
	}
	return "", nil
}

func (s *stubRepository) Exists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued[code], nil
}

func TestNextProbesPastCollisions(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC)
	stub := &stubRepository{
		// last-code read raced: rows exist that the locked read missed
		issued: map[string]bool{
			Format(day, 1): true,
			Format(day, 2): true,
			Format(day, 3): true,
		},
	}
	gen, err := NewGenerator(stub)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	code, err := gen.Next(context.Background(), &gorm.DB{}, day)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if code != "CMD-20250812-0004" {
		t.Fatalf("expected probe to skip issued codes, got %s", code)
	}
}
