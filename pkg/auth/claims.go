package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	BusinessID uuid.UUID
	Role       enums.UserRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	BusinessID uuid.UUID      `json:"business_id"`
	Role       enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
