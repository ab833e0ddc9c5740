package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/drivncook/supply-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT the external identity provider issues.
// The engine only needs who is asking and which franchise (if any) they
// operate.
type AccessTokenClaims struct {
	UserID      uuid.UUID        `json:"user_id"`
	FranchiseID *uuid.UUID       `json:"franchise_id,omitempty"`
	Role        enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
