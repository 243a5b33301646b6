package auth

import (
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a session JWT.
type AccessTokenPayload struct {
	PrincipalID uint
	Email       string
	Role        enums.Role
	JTI         string
}

// AccessTokenClaims represents the typed session JWT issued to clients.
type AccessTokenClaims struct {
	PrincipalID uint       `json:"id"`
	Email       string     `json:"email"`
	Role        enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// ResetTokenClaims is carried by password reset links.
type ResetTokenClaims struct {
	PrincipalID uint       `json:"principalId"`
	Role        enums.Role `json:"role"`
	jwt.RegisteredClaims
}
