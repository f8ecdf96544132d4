package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing per-entity-type sync metadata
type MetadataStorage interface {
	// SaveLastSync saves the server timestamp of the last full sync for entityType
	SaveLastSync(ctx context.Context, entityType string, timestamp time.Time) error

	// GetLastSync retrieves the timestamp of the last full sync for entityType
	// Returns zero time if no sync has been performed yet
	GetLastSync(ctx context.Context, entityType string) (time.Time, error)
}
