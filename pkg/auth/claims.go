package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Kind   enums.AccountKind
	// TenantID is the store (store owners) or public (staff) the account acts for.
	TenantID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID         `json:"user_id"`
	Kind     enums.AccountKind `json:"kind"`
	TenantID *uuid.UUID        `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Payload converts parsed claims back into a payload, used when re-minting on refresh.
func (c *AccessTokenClaims) Payload() AccessTokenPayload {
	return AccessTokenPayload{
		UserID:   c.UserID,
		Kind:     c.Kind,
		TenantID: c.TenantID,
	}
}
