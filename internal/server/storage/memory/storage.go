// Package memory implements storage.CredentialStore in process memory.
// It is used by tests and by DB_DRIVER=memory for local development;
// users are lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/models"
	"github.com/iudanet/loginauth/internal/server/storage"
)

// Storage represents in-memory storage implementation
type Storage struct {
	hasher crypto.Hasher
	users  map[string]*models.User // normalized email -> User
	mu     sync.RWMutex
}

// New creates a new in-memory storage instance
func New(hasher crypto.Hasher) *Storage {
	return &Storage{
		hasher: hasher,
		users:  make(map[string]*models.User),
	}
}

// LookupByEmail retrieves user by email, case-insensitively
func (s *Storage) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[models.NormalizeEmail(email)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// CreateUser creates a new user; the duplicate check and insert happen under one lock
func (s *Storage) CreateUser(ctx context.Context, user *models.User, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Хешируем вне блокировки, это самая дорогая часть
	if err := storage.PrepareNewUser(user, password, s.hasher); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.NormalizedEmail]; exists {
		return storage.DuplicateEmail(user.Email)
	}

	copied := *user
	s.users[user.NormalizedEmail] = &copied

	return nil
}

// VerifyPassword checks plaintext password against the stored hash
func (s *Storage) VerifyPassword(ctx context.Context, user *models.User, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return storage.VerifyUserPassword(user, password, s.hasher)
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ID == userID {
			t := lastLogin
			user.LastLogin = &t
			return nil
		}
	}

	return storage.ErrUserNotFound
}

// Count returns the number of registered users
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
