// Package storage defines the client-side session storage.
package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the login session on the client
type AuthStorage interface {
	// SaveAuth stores the session, replacing any previous one
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves the stored session
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session (logout)
	// Returns ErrAuthNotFound if no session exists
	DeleteAuth(ctx context.Context) error
}

// AuthData represents the login session kept on the client
type AuthData struct {
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ServerURL string    `json:"server_url"`
}

// Expired reports whether the token is past its expiry at now
func (a *AuthData) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
