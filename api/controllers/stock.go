package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/api/responses"
	"github.com/drivncook/supply-backend/api/validators"
	"github.com/drivncook/supply-backend/internal/stockledger"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
	"github.com/drivncook/supply-backend/pkg/logger"
)

type setStockRequest struct {
	ProductID         uuid.UUID `json:"product_id" validate:"required"`
	WarehouseID       uuid.UUID `json:"warehouse_id" validate:"required"`
	QuantityAvailable int       `json:"quantity_available" validate:"min=0"`
	AlertThreshold    *int      `json:"alert_threshold,omitempty"`
}

// StockSet replaces the available count for one product at one warehouse.
func StockSet(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetStock(r.Context(), stockledger.SetStockInput{
			ProductID:         req.ProductID,
			WarehouseID:       req.WarehouseID,
			QuantityAvailable: req.QuantityAvailable,
			AlertThreshold:    req.AlertThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// StockByWarehouse lists every stock record held at a warehouse.
func StockByWarehouse(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := parseWarehouseID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListByWarehouse(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// StockAlerts lists every record at or below its alert threshold.
func StockAlerts(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.ListBelowThreshold(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

func parseWarehouseID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "warehouseId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	warehouseID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse id")
	}
	return warehouseID, nil
}
