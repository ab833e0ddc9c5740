package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/api/responses"
	"github.com/drivncook/supply-backend/api/validators"
	"github.com/drivncook/supply-backend/internal/franchises"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
	"github.com/drivncook/supply-backend/pkg/logger"
)

type createFranchiseRequest struct {
	Name        string    `json:"name" validate:"required"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	OwnerUserID uuid.UUID `json:"owner_user_id" validate:"required"`
}

type updateFranchiseRequest struct {
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}

// FranchiseCreate registers a franchise and links it to its operator account.
func FranchiseCreate(svc franchises.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFranchiseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		franchise, err := svc.Create(r.Context(), franchises.CreateFranchiseInput{
			Name:        req.Name,
			Address:     req.Address,
			City:        req.City,
			PostalCode:  req.PostalCode,
			OwnerUserID: req.OwnerUserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, franchise)
	}
}

// FranchiseDetail returns one franchise.
func FranchiseDetail(svc franchises.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		franchiseID, err := parseFranchiseID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		franchise, err := svc.Get(r.Context(), franchiseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, franchise)
	}
}

// FranchiseList returns every franchise.
func FranchiseList(svc franchises.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FranchiseUpdate patches mutable franchise fields.
func FranchiseUpdate(svc franchises.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		franchiseID, err := parseFranchiseID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateFranchiseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		franchise, err := svc.Update(r.Context(), franchiseID, franchises.UpdateFranchiseInput{
			Name:       req.Name,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, franchise)
	}
}

func parseFranchiseID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "franchiseId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise id is required")
	}
	franchiseID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid franchise id")
	}
	return franchiseID, nil
}
