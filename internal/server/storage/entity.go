package storage

import (
	"context"
	"time"

	"github.com/iudanet/opsync/internal/models"
)

// EntityStorage defines interface for the authoritative entity store of the server
type EntityStorage interface {
	// CreateEntity inserts a new entity. A soft-deleted row with the same
	// type and id is revived.
	// Returns ErrEntityExists if a live entity already uses the id
	CreateEntity(ctx context.Context, entity *models.Entity) error

	// UpdateEntity replaces data of a live entity.
	// Returns ErrEntityNotFound if entity doesn't exist or is deleted,
	// ErrVersionConflict if entity.Version is not greater than the stored one
	UpdateEntity(ctx context.Context, entity *models.Entity) error

	// DeleteEntity marks entity as deleted (soft delete)
	// Returns ErrEntityNotFound if entity doesn't exist or is already deleted
	DeleteEntity(ctx context.Context, entityType, id, modifiedBy string, at time.Time) error

	// GetEntity retrieves a single live entity
	// Returns ErrEntityNotFound if entity doesn't exist or is deleted
	GetEntity(ctx context.Context, entityType, id string) (*models.Entity, error)

	// ListEntities retrieves all live entities of a type
	// Returns empty slice if no entities found
	ListEntities(ctx context.Context, entityType string) ([]*models.Entity, error)
}
