package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/loginauth/internal/models"
	"github.com/iudanet/loginauth/internal/server/storage"
)

const selectUserColumns = `
		SELECT id, email, normalized_email, password_hash, first_name, last_name, created_at, last_login
		FROM users
`

// CreateUser validates and hashes the password, then inserts the user.
// The unique index on normalized_email makes the duplicate check atomic.
func (s *Storage) CreateUser(ctx context.Context, user *models.User, password string) error {
	if err := storage.PrepareNewUser(user, password, s.hasher); err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, email, normalized_email, password_hash, first_name, last_name, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.NormalizedEmail,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.LastLogin,
	)

	if err != nil {
		// Проверяем на duplicate email
		if isUniqueViolation(err) {
			return storage.DuplicateEmail(user.Email)
		}
		return storage.Unavailable(fmt.Errorf("failed to insert user: %w", err))
	}

	return nil
}

// LookupByEmail retrieves user by email, case-insensitively
func (s *Storage) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	query := selectUserColumns + `WHERE normalized_email = ?`

	user := &models.User{}
	var lastLogin sql.NullTime

	err := s.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)).Scan(
		&user.ID,
		&user.Email,
		&user.NormalizedEmail,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&lastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, storage.Unavailable(fmt.Errorf("failed to get user: %w", err))
	}

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
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
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, userID)
	if err != nil {
		return storage.Unavailable(fmt.Errorf("failed to update last login: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// isUniqueViolation проверяет ошибку modernc sqlite на нарушение UNIQUE
// (SQLITE_CONSTRAINT_UNIQUE, 2067)
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
