// Package boltstore persists cart snapshots in a local bbolt file.
package boltstore

import (
	"fmt"
	"time"

	"github.com/velora-shop/storefront-backend/internal/cart"
	"go.etcd.io/bbolt"
)

var bucketCart = []byte("cart")

// Storage implements cart.Storage. bbolt takes an exclusive file lock, so a
// second process opening the same file waits up to the open timeout instead
// of silently diverging.
type Storage struct {
	db *bbolt.DB
}

func New(path string) (*Storage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cart database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCart)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cart bucket: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) Load(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCart)
		if bucket == nil {
			return fmt.Errorf("cart bucket not found")
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return cart.ErrNotFound
		}
		// bbolt memory is only valid inside the transaction
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Storage) Save(key string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCart)
		if bucket == nil {
			return fmt.Errorf("cart bucket not found")
		}
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes the entry; used to drop a stored session on logout.
func (s *Storage) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCart)
		if bucket == nil {
			return fmt.Errorf("cart bucket not found")
		}
		return bucket.Delete([]byte(key))
	})
}
