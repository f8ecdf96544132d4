package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/internal/server/storage"
)

var _ storage.EntityStorage = (*Storage)(nil)

const entityColumns = `type, id, data, version, last_modified, modified_by`

// CreateEntity inserts a new entity or revives a soft-deleted one with the same key.
// Returns ErrEntityExists if a live entity already uses the id
func (s *Storage) CreateEntity(ctx context.Context, entity *models.Entity) error {
	data, err := encodeData(entity.Data)
	if err != nil {
		return err
	}
	now := time.Now().Unix()

	// upsert срабатывает только для удалённой строки, живая остаётся нетронутой
	query := `
		INSERT INTO entities (
			type, id, data, version, last_modified, modified_by,
			deleted, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET
			data = excluded.data,
			version = excluded.version,
			last_modified = excluded.last_modified,
			modified_by = excluded.modified_by,
			deleted = 0,
			updated_at = excluded.updated_at
		WHERE entities.deleted = 1
	`

	result, err := s.db.ExecContext(ctx, query,
		entity.Type,
		entity.ID,
		data,
		entity.Version,
		entity.LastModified.UnixNano(),
		entity.ModifiedBy,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrEntityExists
	}

	return nil
}

// UpdateEntity replaces data of a live entity if the incoming version is newer.
// Returns ErrEntityNotFound or ErrVersionConflict
func (s *Storage) UpdateEntity(ctx context.Context, entity *models.Entity) error {
	data, err := encodeData(entity.Data)
	if err != nil {
		return err
	}

	query := `
		UPDATE entities
		SET data = ?, version = ?, last_modified = ?, modified_by = ?, updated_at = ?
		WHERE type = ? AND id = ? AND deleted = 0 AND version < ?
	`

	result, err := s.db.ExecContext(ctx, query,
		data,
		entity.Version,
		entity.LastModified.UnixNano(),
		entity.ModifiedBy,
		time.Now().Unix(),
		entity.Type,
		entity.ID,
		entity.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// Различаем отсутствие записи и устаревшую версию
	if _, err := s.GetEntity(ctx, entity.Type, entity.ID); err != nil {
		return err
	}
	return storage.ErrVersionConflict
}

// DeleteEntity marks entity as deleted and bumps its version
// Returns ErrEntityNotFound if entity doesn't exist or is already deleted
func (s *Storage) DeleteEntity(ctx context.Context, entityType, id, modifiedBy string, at time.Time) error {
	query := `
		UPDATE entities
		SET deleted = 1, version = version + 1, last_modified = ?, modified_by = ?, updated_at = ?
		WHERE type = ? AND id = ? AND deleted = 0
	`

	result, err := s.db.ExecContext(ctx, query,
		at.UnixNano(),
		modifiedBy,
		time.Now().Unix(),
		entityType,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrEntityNotFound
	}

	return nil
}

// GetEntity retrieves a single live entity
// Returns ErrEntityNotFound if entity doesn't exist or is deleted
func (s *Storage) GetEntity(ctx context.Context, entityType, id string) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + `
		FROM entities
		WHERE type = ? AND id = ? AND deleted = 0
	`

	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, entityType, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return entity, nil
}

// ListEntities retrieves all live entities of a type ordered by id
// Returns empty slice if no entities found
func (s *Storage) ListEntities(ctx context.Context, entityType string) (entities []*models.Entity, err error) {
	query := `SELECT ` + entityColumns + `
		FROM entities
		WHERE type = ? AND deleted = 0
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	entities = make([]*models.Entity, 0)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entities, nil
}

// scanner покрывает *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*models.Entity, error) {
	entity := &models.Entity{}
	var data string
	var lastModified int64

	err := row.Scan(
		&entity.Type,
		&entity.ID,
		&data,
		&entity.Version,
		&lastModified,
		&entity.ModifiedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &entity.Data); err != nil {
		return nil, fmt.Errorf("failed to decode entity data: %w", err)
	}
	entity.LastModified = time.Unix(0, lastModified).UTC()

	return entity, nil
}

func encodeData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode entity data: %w", err)
	}
	return string(raw), nil
}
