package controllers

import (
	"net/http"

	"github.com/drivncook/supply-backend/api/responses"
	"github.com/drivncook/supply-backend/api/validators"
	"github.com/drivncook/supply-backend/internal/warehouses"
	"github.com/drivncook/supply-backend/pkg/logger"
)

type createWarehouseRequest struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Kind       string `json:"kind" validate:"required,oneof=network free_market"`
}

type updateWarehouseRequest struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Kind       *string `json:"kind,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// WarehouseCreate registers a supply point.
func WarehouseCreate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createWarehouseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.Create(r.Context(), warehouses.CreateWarehouseInput{
			Name:       req.Name,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Kind:       req.Kind,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, warehouse)
	}
}

// WarehouseDetail returns one warehouse.
func WarehouseDetail(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := parseWarehouseID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.Get(r.Context(), warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouse)
	}
}

// WarehouseList returns every warehouse, optionally filtered by kind.
func WarehouseList(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), r.URL.Query().Get("kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// WarehouseAvailable lists warehouses that accept new allocations.
func WarehouseAvailable(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAvailable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// WarehouseUpdate patches a warehouse, including its kind and status.
func WarehouseUpdate(svc warehouses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := parseWarehouseID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateWarehouseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := svc.Update(r.Context(), warehouseID, warehouses.UpdateWarehouseInput{
			Name:       req.Name,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Kind:       req.Kind,
			Status:     req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouse)
	}
}
