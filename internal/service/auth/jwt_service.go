// Package auth validates identity tokens issued for players. Tokens carry the
// external subject of the player; mapping that subject to a user id is the
// identity service's job.
package auth

import (
	"context"
	"time"
)

// JWTService issues and validates identity tokens.
type JWTService interface {
	// GenerateToken creates a signed token for the external subject.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the token string and returns its claims.
	// It returns ErrExpiredToken, ErrTokenNotYetValid, ErrMissingSubject or
	// ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated claims of an identity token.
type Claims struct {
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	ID        string    `json:"jti,omitempty"`
}
