package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

const resetAudience = "password-reset"

// MintAccessToken issues a signed session JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "jwt secret is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "jwt expiration minutes must be positive")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}
	if payload.PrincipalID == 0 {
		return "", errors.New("principal id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		PrincipalID: payload.PrincipalID,
		Email:       payload.Email,
		Role:        payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   fmt.Sprint(payload.PrincipalID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        jti,
		},
	}

	return sign(cfg.Secret, claims)
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if _, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(cfg.Secret), opts...); err != nil {
		return nil, classify(err)
	}
	if !claims.Role.IsValid() || claims.PrincipalID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, "token claims are incomplete")
	}
	return claims, nil
}

// MintResetToken signs a stateless reset credential with the reset secret.
func MintResetToken(cfg config.ResetConfig, now time.Time, principalID uint, role enums.Role) (string, error) {
	if cfg.Secret == "" {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "reset secret is required")
	}
	if cfg.TTL <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "reset token ttl must be positive")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", role)
	}

	claims := ResetTokenClaims{
		PrincipalID: principalID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}
	return sign(cfg.Secret, claims)
}

// ParseResetToken verifies signature and expiry of a reset credential.
func ParseResetToken(cfg config.ResetConfig, tokenString string) (*ResetTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "reset secret is required")
	}

	claims := &ResetTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		keyFunc(cfg.Secret),
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(resetAudience),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !claims.Role.IsValid() || claims.PrincipalID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, "token claims are incomplete")
	}
	return claims, nil
}

func sign(secret string, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(secret))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "signing jwt")
	}
	return signed, nil
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}

func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "token expired")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, "invalid token")
}
