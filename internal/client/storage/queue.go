package storage

import (
	"context"

	"github.com/iudanet/opsync/internal/models"
)

//go:generate moq -out queue_mock.go . QueueStorage

// QueueStorage keeps a durable copy of the offline operation queue
type QueueStorage interface {
	// SaveQueue replaces the stored queue with ops, preserving order
	SaveQueue(ctx context.Context, ops []*models.SyncOperation) error

	// LoadQueue returns the stored queue in FIFO order
	// Returns empty slice if nothing is queued
	LoadQueue(ctx context.Context) ([]*models.SyncOperation, error)
}
