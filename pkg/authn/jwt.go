// Package authn implements bearer-token auth for the admin HTTP surface
// (mode overrides, health/status reads), adapted from pkg/auth/jwt.go.
package authn

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalid = errors.New("authn: invalid token")

// Claims identifies the admin user a token was issued to, and whether that
// user may reach the Mode-override write path (§6) or only the read-only
// status/audit endpoints — the bootstrap admin created by the first
// /auth/register call is always IsAdmin; later users are read-only unless
// promoted directly in the user table.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func secret() []byte {
	s := os.Getenv("LINKMGRD_JWT_SECRET")
	if s == "" {
		s = "change-me-secret"
	}
	return []byte(s)
}

// Generate issues a signed token for userID/username valid for ttl, carrying
// isAdmin so requireAdmin can gate the mode-override endpoint without a
// second DB round trip per request.
func Generate(userID uint, username string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// Parse validates tokenStr and returns its claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalid
	}
	if claims, ok := token.Claims.(*Claims); ok {
		return claims, nil
	}
	return nil, ErrInvalid
}
