package models

import "time"

// OperationType тип операции над сущностью
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Valid reports whether op is one of the known operation types.
func (op OperationType) Valid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Entity представляет прикладную сущность (case, unit, user) в кэше клиента.
// Data непрозрачен для движка синхронизации: он только мержит поля при update.
type Entity struct {
	LastModified time.Time      `json:"lastModified"` // LastModified время последнего изменения
	Data         map[string]any `json:"data"`         // Data прикладные поля сущности
	ID           string         `json:"id"`           // ID уникален в пределах типа, может быть временным (tmp_...)
	Type         string         `json:"type"`         // Type namespace кэша: "cases", "users", ...
	ModifiedBy   string         `json:"modifiedBy"`   // ModifiedBy идентификатор пользователя, внёсшего изменение
	Version      int64          `json:"version"`      // Version монотонно растущая версия
}

// SyncOperation is the unit exchanged with the remote peer and the unit a
// conflict resolver reasons about.
type SyncOperation struct {
	Timestamp time.Time     `json:"timestamp"`
	Entity    *Entity       `json:"entity"`
	Operation OperationType `json:"operation"`
	UserID    string        `json:"userId"`
}

// IsNewerThan сравнивает две версии сущности по правилу LWW:
// 1. Сначала сравнивается LastModified (более позднее выигрывает)
// 2. При равных LastModified сравнивается Version
// 3. При равных Version сравнивается ModifiedBy (лексикографически, для детерминизма)
func (e *Entity) IsNewerThan(other *Entity) bool {
	if !e.LastModified.Equal(other.LastModified) {
		return e.LastModified.After(other.LastModified)
	}
	if e.Version != other.Version {
		return e.Version > other.Version
	}
	return e.ModifiedBy > other.ModifiedBy
}

// Clone создает глубокую копию сущности, включая вложенные map и slice в Data.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	return &Entity{
		ID:           e.ID,
		Type:         e.Type,
		Version:      e.Version,
		LastModified: e.LastModified,
		ModifiedBy:   e.ModifiedBy,
		Data:         CloneData(e.Data),
	}
}

// Clone создает глубокую копию операции.
func (op *SyncOperation) Clone() *SyncOperation {
	if op == nil {
		return nil
	}
	return &SyncOperation{
		Operation: op.Operation,
		Entity:    op.Entity.Clone(),
		Timestamp: op.Timestamp,
		UserID:    op.UserID,
	}
}

// CloneData deep-copies a JSON-shaped value tree.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneData(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	default:
		// скаляры (string, float64, bool, nil, ...) копируются по значению
		return val
	}
}

// MergeData returns a copy of base with every key of partial written over it.
// Вложенные объекты заменяются целиком, а не мержатся рекурсивно.
func MergeData(base, partial map[string]any) map[string]any {
	out := CloneData(base)
	if out == nil {
		out = make(map[string]any, len(partial))
	}
	for k, v := range partial {
		out[k] = cloneValue(v)
	}
	return out
}
