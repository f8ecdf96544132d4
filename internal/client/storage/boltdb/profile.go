package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
)

var profileKey = []byte("current")

// Compile-time check that Storage implements ProfileStorage
var _ storage.ProfileStorage = (*Storage)(nil)

// SaveProfile stores the operator profile
func (s *Storage) SaveProfile(ctx context.Context, profile *storage.Profile) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProfile)
		if bucket == nil {
			return fmt.Errorf("profile bucket not found")
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}

		if err := bucket.Put(profileKey, data); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		return nil
	})
}

// GetProfile retrieves the stored operator profile
func (s *Storage) GetProfile(ctx context.Context) (*storage.Profile, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var profile *storage.Profile

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProfile)
		if bucket == nil {
			return fmt.Errorf("profile bucket not found")
		}

		data := bucket.Get(profileKey)
		if data == nil {
			return storage.ErrProfileNotFound
		}

		profile = &storage.Profile{}
		if err := json.Unmarshal(data, profile); err != nil {
			return fmt.Errorf("failed to unmarshal profile: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return profile, nil
}

// DeleteProfile removes the stored profile
func (s *Storage) DeleteProfile(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProfile)
		if bucket == nil {
			return fmt.Errorf("profile bucket not found")
		}

		// Проверяем существование данных
		if bucket.Get(profileKey) == nil {
			return storage.ErrProfileNotFound
		}

		if err := bucket.Delete(profileKey); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}

		return nil
	})
}
