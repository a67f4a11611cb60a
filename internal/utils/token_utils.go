package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SscSPs/ledger_sync/internal/middleware"
)

// GenerateOperatorJWT issues an HS256 token accepted by middleware.AuthMiddleware
// for userID acting on tenantID.
func GenerateOperatorJWT(userID, tenantID, secret, issuer string, expiryDuration time.Duration) (string, error) {
	if userID == "" || tenantID == "" {
		return "", errors.New("user and tenant are required")
	}
	now := time.Now()
	claims := middleware.Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
