// Package auth covers the client's local session concerns: the signed
// restore token written next to the stored credentials, and validation of
// user input before it reaches the backend.
package auth

import (
	"time"

	"chat-client/domain"
	"chat-client/errors"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what a restore token carries: enough to resume a session
// without prompting, never the password itself.
type SessionClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// MintSessionToken signs a restore token for the given identity. The secret
// is per-installation, derived from the credential store seal.
func MintSessionToken(identity domain.Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:      string(identity.UserID),
		DisplayName: identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chat-client",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionToken validates signature and expiry and returns the claims.
// Any failure maps to ErrSessionNotFound so callers fall back to a fresh
// login instead of surfacing crypto details.
func ParseSessionToken(tokenString string, secret []byte) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, errors.ErrSessionNotFound
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.ErrSessionNotFound
	}
	return claims, nil
}
