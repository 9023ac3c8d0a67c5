// Package postgres implements the credential store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"

	"github.com/iudanet/loginauth/internal/crypto"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents PostgreSQL storage implementation
type Storage struct {
	db     *sql.DB
	hasher crypto.Hasher
}

// New opens a connection pool, checks connectivity and applies migrations.
func New(ctx context.Context, dsn string, hasher crypto.Hasher) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewWithDB(db, hasher), nil
}

// NewWithDB wraps an existing connection pool. Migrations are not applied.
func NewWithDB(db *sql.DB, hasher crypto.Hasher) *Storage {
	return &Storage{db: db, hasher: hasher}
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}
