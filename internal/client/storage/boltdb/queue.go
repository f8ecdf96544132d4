package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/opsync/internal/client/storage"
	"github.com/iudanet/opsync/internal/models"
)

// Compile-time check that Storage implements QueueStorage
var _ storage.QueueStorage = (*Storage)(nil)

// SaveQueue replaces the stored offline queue with ops.
// Keys are big-endian positions, so a cursor walk returns FIFO order.
func (s *Storage) SaveQueue(ctx context.Context, ops []*models.SyncOperation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		// Пересоздаем bucket целиком: очередь ограничена, перезапись дешевле диффа
		if tx.Bucket(bucketQueue) != nil {
			if err := tx.DeleteBucket(bucketQueue); err != nil {
				return fmt.Errorf("failed to reset queue bucket: %w", err)
			}
		}
		bucket, err := tx.CreateBucket(bucketQueue)
		if err != nil {
			return fmt.Errorf("failed to create queue bucket: %w", err)
		}

		for i, op := range ops {
			data, err := json.Marshal(op)
			if err != nil {
				return fmt.Errorf("failed to marshal queued operation: %w", err)
			}

			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := bucket.Put(key, data); err != nil {
				return fmt.Errorf("failed to save queued operation: %w", err)
			}
		}

		return nil
	})
}

// LoadQueue returns the stored offline queue in FIFO order
func (s *Storage) LoadQueue(ctx context.Context) ([]*models.SyncOperation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	ops := []*models.SyncOperation{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			// Нет bucket - очередь пуста
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var op models.SyncOperation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal queued operation: %w", err)
			}
			ops = append(ops, &op)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	return ops, nil
}
