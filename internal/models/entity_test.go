package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_IsNewerThan(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		self     *Entity
		other    *Entity
		name     string
		expected bool
	}{
		{
			name:     "self modified later",
			self:     &Entity{LastModified: base.Add(time.Second)},
			other:    &Entity{LastModified: base},
			expected: true,
		},
		{
			name:     "self modified earlier",
			self:     &Entity{LastModified: base},
			other:    &Entity{LastModified: base.Add(time.Second)},
			expected: false,
		},
		{
			name:     "same time, higher version",
			self:     &Entity{LastModified: base, Version: 3},
			other:    &Entity{LastModified: base, Version: 2},
			expected: true,
		},
		{
			name:     "same time and version, modifiedBy greater lex",
			self:     &Entity{LastModified: base, Version: 1, ModifiedBy: "userB"},
			other:    &Entity{LastModified: base, Version: 1, ModifiedBy: "userA"},
			expected: true,
		},
		{
			name:     "identical",
			self:     &Entity{LastModified: base, Version: 1, ModifiedBy: "userA"},
			other:    &Entity{LastModified: base, Version: 1, ModifiedBy: "userA"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.self.IsNewerThan(tt.other))
		})
	}
}

func TestEntity_Clone(t *testing.T) {
	original := &Entity{
		ID:           "case-1",
		Type:         "cases",
		Version:      4,
		LastModified: time.Now(),
		ModifiedBy:   "user-1",
		Data: map[string]any{
			"title": "Flooding",
			"tags":  []any{"urgent", "north"},
			"unit":  map[string]any{"id": "u-7", "crew": float64(4)},
		},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	// Изменения клона не должны затрагивать оригинал
	clone.Data["title"] = "changed"
	clone.Data["tags"].([]any)[0] = "low"
	clone.Data["unit"].(map[string]any)["crew"] = float64(1)

	assert.Equal(t, "Flooding", original.Data["title"])
	assert.Equal(t, "urgent", original.Data["tags"].([]any)[0])
	assert.Equal(t, float64(4), original.Data["unit"].(map[string]any)["crew"])

	var nilEntity *Entity
	assert.Nil(t, nilEntity.Clone())
}

func TestMergeData(t *testing.T) {
	base := map[string]any{"title": "A", "status": "open"}
	partial := map[string]any{"status": "closed", "assignee": "u-1"}

	merged := MergeData(base, partial)

	assert.Equal(t, map[string]any{"title": "A", "status": "closed", "assignee": "u-1"}, merged)
	assert.Equal(t, "open", base["status"], "base must not be mutated")

	assert.Equal(t, map[string]any{"a": 1}, MergeData(nil, map[string]any{"a": 1}))
}

func TestOperationType_Valid(t *testing.T) {
	assert.True(t, OperationCreate.Valid())
	assert.True(t, OperationUpdate.Valid())
	assert.True(t, OperationDelete.Valid())
	assert.False(t, OperationType("upsert").Valid())
}
