package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iudanet/loginauth/internal/models"
	"github.com/iudanet/loginauth/internal/server/storage"
)

// uniqueViolation SQLSTATE нарушения уникального индекса
const uniqueViolation = "23505"

// CreateUser validates and hashes the password, then inserts the user.
func (s *Storage) CreateUser(ctx context.Context, user *models.User, password string) error {
	if err := storage.PrepareNewUser(user, password, s.hasher); err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, email, normalized_email, password_hash, first_name, last_name, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.DuplicateEmail(user.Email)
		}
		return storage.Unavailable(fmt.Errorf("failed to insert user: %w", err))
	}

	return nil
}

// LookupByEmail retrieves user by email, case-insensitively
func (s *Storage) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, normalized_email, password_hash, first_name, last_name, created_at, last_login
		FROM users
		WHERE normalized_email = $1
	`

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
	result, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, lastLogin, userID)
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
