package sync

import (
	"fmt"

	"github.com/iudanet/opsync/internal/models"
)

// ConflictResolver decides the value of an entity that has an unconfirmed
// local change when a remote operation for the same id arrives.
// local is nil when the local change was a delete. A nil result removes the entity.
// Resolvers run while the engine is locked and must not call back into it.
type ConflictResolver func(local, remote *models.Entity, op *models.SyncOperation) (*models.Entity, error)

// RemoteWins is the default policy: the remote operation is applied as is.
func RemoteWins(_, remote *models.Entity, op *models.SyncOperation) (*models.Entity, error) {
	if op.Operation == models.OperationDelete {
		return nil, nil
	}
	return remote, nil
}

// LocalWins keeps the optimistic value.
func LocalWins(local, _ *models.Entity, _ *models.SyncOperation) (*models.Entity, error) {
	return local, nil
}

// LastWriteWins keeps whichever side was modified last, ordering by
// LastModified, then Version, then ModifiedBy. A remote delete is treated as a
// write at the operation timestamp.
func LastWriteWins(local, remote *models.Entity, op *models.SyncOperation) (*models.Entity, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote %s carries no entity", op.Operation)
	}
	if local == nil {
		// локальное удаление не несёт значения для сравнения
		return RemoteWins(nil, remote, op)
	}

	candidate := remote
	if op.Operation == models.OperationDelete {
		candidate = remote.Clone()
		candidate.LastModified = op.Timestamp
	}
	if local.IsNewerThan(candidate) {
		return local, nil
	}
	return RemoteWins(local, remote, op)
}

// resolve runs resolver behind recover. A panic is reported as an error.
func resolve(resolver ConflictResolver, local, remote *models.Entity, op *models.SyncOperation) (out *models.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: panic: %v", ErrResolverFailed, r)
		}
	}()

	out, err = resolver(local.Clone(), remote.Clone(), op.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolverFailed, err)
	}
	return out, nil
}
