package sync

import (
	"errors"
	"fmt"

	"github.com/iudanet/opsync/internal/models"
)

var (
	// ErrNotFound indicates a mutation against an id absent from the local cache.
	// It is a caller contract violation and is never retried.
	ErrNotFound = errors.New("entity not found")

	// ErrNotInitialized indicates an operation on an entity type without a Sync State
	ErrNotInitialized = errors.New("entity type is not initialized")

	// ErrResolverFailed wraps a conflict resolver failure; the remote value wins
	ErrResolverFailed = errors.New("conflict resolver failed")

	// ErrEngineClosed is returned by mutations after Close
	ErrEngineClosed = errors.New("sync engine is closed")
)

// NotFoundError reports the type and id of the missing entity.
type NotFoundError struct {
	Type string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Type, e.ID, ErrNotFound)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// OperationError is a remote rejection of a create, update or delete.
type OperationError struct {
	Type      string
	EntityID  string
	TempID    string
	Message   string
	Operation models.OperationType
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s/%s rejected: %s", e.Operation, e.Type, e.EntityID, e.Message)
}
