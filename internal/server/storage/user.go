package storage

import (
	"context"
	"time"

	"github.com/iudanet/loginauth/internal/models"
)

// CredentialStore defines the capability the auth core needs from a user registry.
// Any persistence backend (relational, document, in-memory) can satisfy it.
type CredentialStore interface {
	// LookupByEmail retrieves user by email, case-insensitively
	// Returns ErrUserNotFound if user doesn't exist
	LookupByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateUser validates the password against the store policy, hashes it
	// and creates the user atomically.
	// Returns ValidationErrors for client-correctable failures (duplicate email,
	// weak or over-long password) and ErrPasswordHashing when hashing fails.
	// Any other error means the store is unavailable.
	CreateUser(ctx context.Context, user *models.User, password string) error

	// VerifyPassword checks plaintext password against the stored hash
	VerifyPassword(ctx context.Context, user *models.User, password string) (bool, error)
}

// LoginRecorder is an optional capability for stores that track the last login time.
type LoginRecorder interface {
	// UpdateLastLogin updates the last login timestamp
	// Returns ErrUserNotFound if user doesn't exist
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}
