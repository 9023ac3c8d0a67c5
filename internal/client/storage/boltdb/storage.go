// Package boltdb implements the client session storage on a BoltDB file.
package boltdb

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketAuth = []byte("auth")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(dbPath string) (*Storage, error) {
	// Таймаут, чтобы второй запущенный клиент не ждал блокировку файла вечно
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}
