package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/api/middleware"
	"github.com/drivncook/supply-backend/internal/orders"
	"github.com/drivncook/supply-backend/internal/sales"
	"github.com/drivncook/supply-backend/pkg/enums"
	pkgerrors "github.com/drivncook/supply-backend/pkg/errors"
)

func actorParts(r *http.Request) (uuid.UUID, *uuid.UUID, enums.MemberRole, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return uuid.Nil, nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	var franchiseID *uuid.UUID
	if raw := middleware.FranchiseIDFromContext(r.Context()); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid franchise id")
		}
		franchiseID = &parsed
	}

	role := enums.MemberRole(middleware.RoleFromContext(r.Context()))
	if !role.IsValid() {
		return uuid.Nil, nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}
	return userID, franchiseID, role, nil
}

func orderActor(r *http.Request) (orders.Actor, error) {
	userID, franchiseID, role, err := actorParts(r)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{UserID: userID, FranchiseID: franchiseID, Role: role}, nil
}

func saleActor(r *http.Request) (sales.Actor, error) {
	userID, franchiseID, role, err := actorParts(r)
	if err != nil {
		return sales.Actor{}, err
	}
	return sales.Actor{UserID: userID, FranchiseID: franchiseID, Role: role}, nil
}
