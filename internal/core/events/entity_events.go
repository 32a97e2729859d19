package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeEntityMutated = "entity.mutated"

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// EntityMutatedEvent is published after a successful write so list views of
// the same entity refetch.
type EntityMutatedEvent struct {
	BaseEvent
	Entity   string `json:"entity"`
	Op       string `json:"op"`
	RecordID string `json:"record_id"`
}

func NewEntityMutatedEvent(entity, op, recordID string) *EntityMutatedEvent {
	return &EntityMutatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEntityMutated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity":    entity,
				"op":        op,
				"record_id": recordID,
			},
		},
		Entity:   entity,
		Op:       op,
		RecordID: recordID,
	}
}
