package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/opsync/internal/models"
	"github.com/iudanet/opsync/internal/server/storage"
	"github.com/iudanet/opsync/internal/validation"
	"github.com/iudanet/opsync/pkg/api"
)

var errInvalidEntity = errors.New("invalid entity")

// handle routes one inbound envelope. Messages are processed in the order a
// client sent them, so confirmations arrive in send order.
func (h *Hub) handle(c *client, env *api.Envelope) {
	switch env.Event {
	case api.EventEntityCreate, api.EventEntityUpdate, api.EventEntityDelete:
		var op models.SyncOperation
		if err := json.Unmarshal(env.Payload, &op); err != nil {
			h.logger.Warn("Invalid operation payload", "client_id", c.id, "event", env.Event, "error", err)
			return
		}
		h.handleOperation(c, env.Event, &op)
	case api.EventEntitySync:
		var req api.SyncRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			h.logger.Warn("Invalid sync request", "client_id", c.id, "error", err)
			return
		}
		h.handleSync(c, &req)
	case api.EventPing:
		c.reply(api.EventPong, api.Pong{Timestamp: h.clock.Now()})
	default:
		h.logger.Debug("Unknown event", "client_id", c.id, "event", env.Event)
	}
}

func (h *Hub) handleOperation(c *client, event string, op *models.SyncOperation) {
	if op.Entity == nil {
		h.logger.Warn("Operation without entity", "client_id", c.id, "event", event)
		return
	}
	// событие определяет операцию, поле operation в payload вторично
	switch event {
	case api.EventEntityCreate:
		op.Operation = models.OperationCreate
	case api.EventEntityUpdate:
		op.Operation = models.OperationUpdate
	case api.EventEntityDelete:
		op.Operation = models.OperationDelete
	}

	if err := validation.ValidateEntityType(op.Entity.Type); err != nil {
		h.reject(c, op, op.Entity.ID, fmt.Errorf("%w: %v", errInvalidEntity, err))
		return
	}

	ctx := context.Background()
	now := h.clock.Now()
	if op.Timestamp.IsZero() {
		op.Timestamp = now
	}
	ent := op.Entity.Clone()
	if ent.LastModified.IsZero() {
		ent.LastModified = op.Timestamp
	}
	if ent.ModifiedBy == "" {
		ent.ModifiedBy = op.UserID
	}

	clientID := ent.ID
	var err error
	switch op.Operation {
	case models.OperationCreate:
		// настоящий id всегда выдаёт сервер
		ent.ID = uuid.NewString()
		if ent.Version < 1 {
			ent.Version = 1
		}
		err = h.store.CreateEntity(ctx, ent)
	case models.OperationUpdate:
		if ent.ID == "" {
			err = storage.ErrEntityNotFound
			break
		}
		err = h.store.UpdateEntity(ctx, ent)
	case models.OperationDelete:
		if ent.ID == "" {
			err = storage.ErrEntityNotFound
			break
		}
		err = h.store.DeleteEntity(ctx, ent.Type, ent.ID, ent.ModifiedBy, ent.LastModified)
		ent = &models.Entity{
			ID:           ent.ID,
			Type:         ent.Type,
			LastModified: ent.LastModified,
			ModifiedBy:   ent.ModifiedBy,
		}
	}
	if err != nil {
		h.reject(c, op, clientID, err)
		return
	}

	conf := api.OperationConfirmed{
		RealID:     ent.ID,
		EntityType: ent.Type,
		Operation:  op.Operation,
	}
	if op.Operation == models.OperationCreate {
		conf.TempID = clientID
	}
	c.reply(api.EventOperationConfirmed, conf)

	applied := &models.SyncOperation{
		Operation: op.Operation,
		Entity:    ent,
		Timestamp: op.Timestamp,
		UserID:    op.UserID,
	}
	out, err := api.NewEnvelope(api.BroadcastEventForOperation(op.Operation), applied)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", "entity_type", ent.Type, "entity_id", ent.ID, "error", err)
		return
	}
	h.broadcast(c, out)

	h.logger.Debug("Operation applied",
		"client_id", c.id,
		"operation", op.Operation,
		"entity_type", ent.Type,
		"entity_id", ent.ID,
		"temp_id", conf.TempID)
}

// reject answers the sender with entity:operation:error. Storage failures
// other than the domain errors are reported without their details.
func (h *Hub) reject(c *client, op *models.SyncOperation, entityID string, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, errInvalidEntity),
		errors.Is(err, storage.ErrEntityNotFound),
		errors.Is(err, storage.ErrEntityExists),
		errors.Is(err, storage.ErrVersionConflict):
		h.logger.Info("Operation rejected",
			"client_id", c.id,
			"operation", op.Operation,
			"entity_type", op.Entity.Type,
			"entity_id", entityID,
			"error", err)
	default:
		h.logger.Error("Failed to apply operation",
			"client_id", c.id,
			"operation", op.Operation,
			"entity_type", op.Entity.Type,
			"entity_id", entityID,
			"error", err)
		msg = "internal error"
	}

	rej := api.OperationError{
		EntityID:   entityID,
		EntityType: op.Entity.Type,
		Operation:  op.Operation,
		Error:      msg,
	}
	if op.Operation == models.OperationCreate {
		rej.TempID = entityID
	}
	c.reply(api.EventOperationError, rej)
}

func (h *Hub) handleSync(c *client, req *api.SyncRequest) {
	if err := validation.ValidateEntityType(req.EntityType); err != nil {
		h.logger.Warn("Invalid sync request", "client_id", c.id, "entity_type", req.EntityType, "error", err)
		return
	}

	entities, err := h.store.ListEntities(context.Background(), req.EntityType)
	if err != nil {
		h.logger.Error("Failed to list entities", "entity_type", req.EntityType, "error", err)
		return
	}

	// всегда полный снимок: клиент заменяет кэш типа целиком
	c.reply(api.EventSyncResponse, api.SyncResponse{
		Timestamp:  h.clock.Now(),
		EntityType: req.EntityType,
		Entities:   entities,
	})

	h.logger.Debug("Sync response sent",
		"client_id", c.id,
		"entity_type", req.EntityType,
		"entities", len(entities))
}
