package ordercode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

const (
	codePrefix = "CMD"
	dayLayout  = "20060102"

	// maxAttempts bounds the exists-probe loop when generators race past the
	// row lock (first order of the day has no row to lock on).
	maxAttempts = 20
)

// Generator issues order codes of the form CMD-YYYYMMDD-0001. The four digit
// sequence restarts at one each day and keeps growing past 9999 if a day ever
// needs it.
type Generator interface {
	Next(ctx context.Context, tx *gorm.DB, day time.Time) (string, error)
}

type generator struct {
	repo Repository
}

// NewGenerator wires a code generator with the provided repository.
func NewGenerator(repo Repository) (Generator, error) {
	if repo == nil {
		return nil, fmt.Errorf("order code repository required")
	}
	return &generator{repo: repo}, nil
}

// Format renders the code for a day and sequence number.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", codePrefix, day.Format(dayLayout), seq)
}

// DayPrefix returns the shared prefix of every code issued on the day,
// trailing dash included.
func DayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", codePrefix, day.Format(dayLayout))
}

// ParseSequence extracts the sequence number from a code. It returns an error
// for anything that does not look like an issued code.
func ParseSequence(code string) (int, error) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || parts[0] != codePrefix {
		return 0, fmt.Errorf("malformed order code %q", code)
	}
	if _, err := time.Parse(dayLayout, parts[1]); err != nil {
		return 0, fmt.Errorf("malformed order code date %q", code)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 1 {
		return 0, fmt.Errorf("malformed order code sequence %q", code)
	}
	return seq, nil
}

// Next issues the next code for the day inside the caller's transaction. The
// read of the day's last code takes a row lock, and a unique index on the
// code column backs up the exists probe for the unlocked first-of-day race.
func (g *generator) Next(ctx context.Context, tx *gorm.DB, day time.Time) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("transaction required")
	}
	repo := g.repo.WithTx(tx)
	prefix := DayPrefix(day)

	last, err := repo.LastCode(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading last order code")
	}

	seq := 1
	if last != "" {
		parsed, perr := ParseSequence(last)
		if perr != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, perr, "parsing last order code")
		}
		seq = parsed + 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := Format(day, seq)
		exists, err := repo.Exists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "probing order code")
		}
		if !exists {
			return candidate, nil
		}
		seq++
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate order code")
}
