package storage

import "errors"

// Common client storage errors
var (
	// ErrProfileNotFound indicates that no persisted profile exists
	ErrProfileNotFound = errors.New("profile not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
