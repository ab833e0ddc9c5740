package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivncook/supply-backend/api/responses"
	"github.com/drivncook/supply-backend/api/validators"
	"github.com/drivncook/supply-backend/internal/sales"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
	"github.com/drivncook/supply-backend/pkg/logger"
)

type recordSaleRequest struct {
	FranchiseID      uuid.UUID       `json:"franchise_id" validate:"required"`
	SaleDate         time.Time       `json:"sale_date" validate:"required"`
	DailyRevenue     decimal.Decimal `json:"daily_revenue" validate:"required"`
	TransactionCount int             `json:"transaction_count" validate:"min=0"`
}

// SaleRecord stores one franchise day of revenue and its royalty.
func SaleRecord(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := saleActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordSaleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Record(r.Context(), sales.RecordSaleInput{
			Actor:            actor,
			FranchiseID:      req.FranchiseID,
			SaleDate:         req.SaleDate,
			DailyRevenue:     req.DailyRevenue,
			TransactionCount: req.TransactionCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

// SaleList returns a franchise's sales history, newest first.
func SaleList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := buildListSalesInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SaleSummary aggregates a franchise's revenue and royalties over a period.
func SaleSummary(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := buildListSalesInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func buildListSalesInput(r *http.Request) (sales.ListSalesInput, error) {
	actor, err := saleActor(r)
	if err != nil {
		return sales.ListSalesInput{}, err
	}

	// Franchisees default to their own franchise; operators name one.
	var franchiseID uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("franchise_id")); raw != "" {
		franchiseID, err = uuid.Parse(raw)
		if err != nil {
			return sales.ListSalesInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid franchise id")
		}
	} else if actor.FranchiseID != nil {
		franchiseID = *actor.FranchiseID
	} else {
		return sales.ListSalesInput{}, pkgerrors.New(pkgerrors.CodeValidation, "franchise id required")
	}

	from, err := validators.ParseQueryDate(r, "date_from")
	if err != nil {
		return sales.ListSalesInput{}, err
	}
	to, err := validators.ParseQueryDate(r, "date_to")
	if err != nil {
		return sales.ListSalesInput{}, err
	}

	return sales.ListSalesInput{
		Actor:       actor,
		FranchiseID: franchiseID,
		From:        from,
		To:          to,
	}, nil
}
