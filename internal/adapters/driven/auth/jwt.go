// Package auth provides the JWT token issuer and bcrypt password hasher
// backing account authentication.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// Ensure JWTIssuer implements the interface.
var _ driven.TokenIssuer = (*JWTIssuer)(nil)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 24 * time.Hour

// JWTIssuer signs and verifies HS256 session tokens. The subject claim
// carries the user ID.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a token issuer with the given signing secret.
// An empty secret is a fatal configuration error; there is no default.
func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is not set", domain.ErrMissingCredentials)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &JWTIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token whose subject is the user ID.
func (j *JWTIssuer) Issue(userID string) (string, error) {
	now := j.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its subject user ID.
func (j *JWTIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return j.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return j.now() }),
	)
	if err != nil {
		return "", domain.ErrAuthInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrAuthInvalid
	}
	return claims.Subject, nil
}
