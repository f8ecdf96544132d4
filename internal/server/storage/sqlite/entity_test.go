package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func newTestEntity(entityType string, data map[string]any) *models.Entity {
	return &models.Entity{
		ID:           uuid.New().String(),
		Type:         entityType,
		Data:         data,
		Version:      1,
		LastModified: time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		ModifiedBy:   "user-1",
	}
}

func TestEntityStorage_CreateEntity(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	tests := []struct {
		entity *models.Entity
		name   string
	}{
		{
			name:   "create entity with nested data",
			entity: newTestEntity("cases", map[string]any{"title": "A", "tags": []any{"x", "y"}, "meta": map[string]any{"n": float64(1)}}),
		},
		{
			name:   "create entity without data",
			entity: newTestEntity("units", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.CreateEntity(ctx, tt.entity))

			got, err := s.GetEntity(ctx, tt.entity.Type, tt.entity.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.entity.ID, got.ID)
			assert.Equal(t, tt.entity.Type, got.Type)
			assert.Equal(t, tt.entity.Version, got.Version)
			assert.Equal(t, tt.entity.ModifiedBy, got.ModifiedBy)
			assert.True(t, tt.entity.LastModified.Equal(got.LastModified))
			if tt.entity.Data == nil {
				assert.Empty(t, got.Data)
			} else {
				assert.Equal(t, tt.entity.Data, got.Data)
			}
		})
	}
}

func TestEntityStorage_CreateEntity_Exists(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := newTestEntity("cases", map[string]any{"title": "A"})
	require.NoError(t, s.CreateEntity(ctx, e))

	err := s.CreateEntity(ctx, e)
	assert.ErrorIs(t, err, storage.ErrEntityExists)
}

func TestEntityStorage_CreateEntity_SameIDOtherType(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	a := newTestEntity("cases", map[string]any{"title": "A"})
	b := newTestEntity("units", map[string]any{"name": "B"})
	b.ID = a.ID

	require.NoError(t, s.CreateEntity(ctx, a))
	require.NoError(t, s.CreateEntity(ctx, b))

	got, err := s.GetEntity(ctx, "units", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Data["name"])
}

func TestEntityStorage_CreateEntity_RevivesDeleted(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := newTestEntity("cases", map[string]any{"title": "old"})
	require.NoError(t, s.CreateEntity(ctx, e))
	require.NoError(t, s.DeleteEntity(ctx, e.Type, e.ID, "user-2", time.Now()))

	e.Data = map[string]any{"title": "new"}
	require.NoError(t, s.CreateEntity(ctx, e))

	got, err := s.GetEntity(ctx, e.Type, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Data["title"])
}

func TestEntityStorage_UpdateEntity(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := newTestEntity("cases", map[string]any{"title": "A"})
	require.NoError(t, s.CreateEntity(ctx, e))

	tests := []struct {
		wantError   error
		mutate      func(e *models.Entity)
		name        string
		wantVersion int64
	}{
		{
			name: "newer version is applied",
			mutate: func(e *models.Entity) {
				e.Version = 2
				e.Data = map[string]any{"title": "B"}
			},
			wantVersion: 2,
		},
		{
			name: "skipped versions are accepted",
			mutate: func(e *models.Entity) {
				e.Version = 5
				e.Data = map[string]any{"title": "C"}
			},
			wantVersion: 5,
		},
		{
			name: "same version is a conflict",
			mutate: func(e *models.Entity) {
				e.Version = 5
				e.Data = map[string]any{"title": "D"}
			},
			wantError:   storage.ErrVersionConflict,
			wantVersion: 5,
		},
		{
			name: "older version is a conflict",
			mutate: func(e *models.Entity) {
				e.Version = 3
			},
			wantError:   storage.ErrVersionConflict,
			wantVersion: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upd := e.Clone()
			tt.mutate(upd)

			err := s.UpdateEntity(ctx, upd)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
			}

			got, err := s.GetEntity(ctx, e.Type, e.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, got.Version)
		})
	}
}

func TestEntityStorage_UpdateEntity_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.UpdateEntity(ctx, newTestEntity("cases", nil))
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	e := newTestEntity("cases", nil)
	require.NoError(t, s.CreateEntity(ctx, e))
	require.NoError(t, s.DeleteEntity(ctx, e.Type, e.ID, "user-1", time.Now()))

	e.Version = 10
	err = s.UpdateEntity(ctx, e)
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestEntityStorage_DeleteEntity(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := newTestEntity("cases", map[string]any{"title": "A"})
	require.NoError(t, s.CreateEntity(ctx, e))

	require.NoError(t, s.DeleteEntity(ctx, e.Type, e.ID, "user-2", time.Now()))

	_, err := s.GetEntity(ctx, e.Type, e.ID)
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	// повторное удаление
	err = s.DeleteEntity(ctx, e.Type, e.ID, "user-2", time.Now())
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)

	// строка осталась в таблице как soft delete
	var deleted int
	var version int64
	err = s.db.QueryRowContext(ctx,
		`SELECT deleted, version FROM entities WHERE type = ? AND id = ?`, e.Type, e.ID,
	).Scan(&deleted, &version)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, int64(2), version)
}

func TestEntityStorage_ListEntities(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	empty, err := s.ListEntities(ctx, "cases")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := newTestEntity("cases", map[string]any{"title": "A"})
	b := newTestEntity("cases", map[string]any{"title": "B"})
	c := newTestEntity("cases", map[string]any{"title": "C"})
	other := newTestEntity("units", map[string]any{"name": "U"})
	for _, e := range []*models.Entity{a, b, c, other} {
		require.NoError(t, s.CreateEntity(ctx, e))
	}
	require.NoError(t, s.DeleteEntity(ctx, "cases", b.ID, "user-1", time.Now()))

	got, err := s.ListEntities(ctx, "cases")
	require.NoError(t, err)
	require.Len(t, got, 2)

	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{a.ID, c.ID}, ids)
	assert.Less(t, got[0].ID, got[1].ID)
	for _, e := range got {
		assert.Equal(t, "cases", e.Type)
	}
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)

	require.NoError(t, s.Ping(context.Background()))

	cleanup()
	assert.Error(t, s.Ping(context.Background()))
}
