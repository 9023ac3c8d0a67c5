package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/loginauth/internal/client/storage"
)

var authKey = []byte("current")

var _ storage.AuthStorage = (*Storage)(nil)

// SaveAuth stores authentication data
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Сериализуем данные в JSON
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if err := bucket.Put(authKey, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}

		return nil
	})
}

// GetAuth retrieves stored authentication data
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var auth *storage.AuthData

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		data := bucket.Get(authKey)
		if data == nil {
			return storage.ErrAuthNotFound
		}

		// Данные bbolt валидны только внутри транзакции, Unmarshal копирует их
		auth = &storage.AuthData{}
		if err := json.Unmarshal(data, auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return auth, nil
}

// DeleteAuth removes stored authentication data (logout)
func (s *Storage) DeleteAuth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		// Проверяем существование данных
		if bucket.Get(authKey) == nil {
			return storage.ErrAuthNotFound
		}

		if err := bucket.Delete(authKey); err != nil {
			return fmt.Errorf("failed to delete auth data: %w", err)
		}

		return nil
	})
}
