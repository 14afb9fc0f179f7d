package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload is what the caller knows about the account being
// signed in: a registered customer, staff, or a buyer created at guest
// checkout.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims is the token body. Subject mirrors UserID for clients
// that only read registered claims.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email,omitempty"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func newClaims(p AccessTokenPayload) AccessTokenClaims {
	jti := strings.TrimSpace(p.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	return AccessTokenClaims{
		UserID: p.UserID,
		Email:  strings.ToLower(strings.TrimSpace(p.Email)),
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: p.UserID.String(),
			ID:      jti,
		},
	}
}

