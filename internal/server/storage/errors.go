package storage

import "errors"

// Common storage errors
var (
	// ErrEntityNotFound indicates that entity does not exist or was deleted
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEntityExists indicates that a live entity with this id already exists
	ErrEntityExists = errors.New("entity already exists")

	// ErrVersionConflict indicates that the stored version is not older than the incoming one
	ErrVersionConflict = errors.New("version conflict")
)
