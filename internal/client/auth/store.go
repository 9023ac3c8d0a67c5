package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/loginauth/internal/client/storage"
)

// SessionStore wraps the raw session storage and interprets its state
// relative to the current time.
type SessionStore struct {
	storage storage.AuthStorage
	now     func() time.Time
}

// NewSessionStore creates a SessionStore on top of storage
func NewSessionStore(s storage.AuthStorage, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{storage: s, now: now}
}

// Save сохраняет сессию
func (s *SessionStore) Save(ctx context.Context, auth *storage.AuthData) error {
	if auth == nil {
		return fmt.Errorf("auth data is nil")
	}
	if auth.Token == "" {
		return fmt.Errorf("auth data has no token")
	}
	return s.storage.SaveAuth(ctx, auth)
}

// Load возвращает сохраненную сессию, даже если токен уже истек
func (s *SessionStore) Load(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return auth, nil
}

// Active возвращает сессию только если токен еще не истек
func (s *SessionStore) Active(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	return auth, nil
}

// Clear удаляет сессию
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.storage.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
