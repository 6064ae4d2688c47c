package auth

import (
	"github.com/agendaja-app/agendaja-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CompanyID uuid.UUID
	Role      enums.ActorRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	CompanyID uuid.UUID       `json:"company_id"`
	Role      enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
