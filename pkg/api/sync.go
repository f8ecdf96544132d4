package api

import (
	"encoding/json"
	"time"

	"github.com/iudanet/opsync/internal/models"
)

// Outbound события (клиент -> сервер)
const (
	EventEntityCreate = "entity:create"
	EventEntityUpdate = "entity:update"
	EventEntityDelete = "entity:delete"
	EventEntitySync   = "entity:sync"
	EventPing         = "ping"
)

// Inbound события (сервер -> клиент)
const (
	EventEntityCreated      = "entity:created"
	EventEntityUpdated      = "entity:updated"
	EventEntityDeleted      = "entity:deleted"
	EventSyncResponse       = "entity:sync:response"
	EventOperationConfirmed = "entity:operation:confirmed"
	EventOperationError     = "entity:operation:error"
	EventPong               = "pong"
)

// Envelope is the frame written to the WebSocket for every named message.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and wraps it with the event name.
func NewEnvelope(event string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Payload: raw}, nil
}

// SyncRequest запрашивает полный снимок (или дельту) сущностей одного типа.
// LastSync == nil означает, что клиент ещё ни разу не синхронизировался.
type SyncRequest struct {
	LastSync   *time.Time `json:"lastSync"`
	Timestamp  time.Time  `json:"timestamp"`
	EntityType string     `json:"entityType"`
}

// SyncResponse содержит снимок сущностей типа на момент Timestamp.
type SyncResponse struct {
	Timestamp  time.Time        `json:"timestamp"`
	EntityType string           `json:"entityType"`
	Entities   []*models.Entity `json:"entities"`
}

// OperationConfirmed подтверждает применение операции сервером.
// TempID заполняется только для create, когда клиент использовал временный ID.
type OperationConfirmed struct {
	TempID     string               `json:"tempId,omitempty"`
	RealID     string               `json:"realId"`
	EntityType string               `json:"entityType"`
	Operation  models.OperationType `json:"operation"`
}

// OperationError сообщает, что сервер отклонил операцию.
type OperationError struct {
	TempID     string               `json:"tempId,omitempty"`
	EntityID   string               `json:"entityId"`
	EntityType string               `json:"entityType"`
	Operation  models.OperationType `json:"operation"`
	Error      string               `json:"error"`
}

// Ping / Pong для health check соединения
type Ping struct {
	Timestamp time.Time `json:"timestamp"`
}

type Pong struct {
	Timestamp time.Time `json:"timestamp"`
}

// EventForOperation returns the outbound event name for a local operation.
func EventForOperation(op models.OperationType) string {
	switch op {
	case models.OperationCreate:
		return EventEntityCreate
	case models.OperationUpdate:
		return EventEntityUpdate
	case models.OperationDelete:
		return EventEntityDelete
	default:
		return ""
	}
}

// BroadcastEventForOperation returns the inbound event name peers receive
// after an operation was applied remotely.
func BroadcastEventForOperation(op models.OperationType) string {
	switch op {
	case models.OperationCreate:
		return EventEntityCreated
	case models.OperationUpdate:
		return EventEntityUpdated
	case models.OperationDelete:
		return EventEntityDeleted
	default:
		return ""
	}
}
