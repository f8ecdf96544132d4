package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
)

const lastSyncKeyPrefix = "last_sync:"

// Compile-time check that Storage implements MetadataStorage
var _ storage.MetadataStorage = (*Storage)(nil)

// SaveLastSync saves the timestamp of the last full sync of entityType
func (s *Storage) SaveLastSync(ctx context.Context, entityType string, timestamp time.Time) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		// Храним UnixNano в big-endian
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp.UnixNano()))

		if err := bucket.Put([]byte(lastSyncKeyPrefix+entityType), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync for %s: %w", entityType, err)
		}

		return nil
	})
}

// GetLastSync retrieves the timestamp of the last full sync of entityType
// Returns zero time if no sync has been performed yet
func (s *Storage) GetLastSync(ctx context.Context, entityType string) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, storage.ErrStorageClosed
	}

	var timestamp time.Time

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := bucket.Get([]byte(lastSyncKeyPrefix + entityType))
		if timestampBytes == nil {
			// первая синхронизация
			return nil
		}

		timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(timestampBytes))).UTC()
		return nil
	})

	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync: %w", err)
	}

	return timestamp, nil
}
