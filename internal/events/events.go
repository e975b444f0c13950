// Package events carries note change notifications between processes.
//
// A change to a note is published on a per-tenant channel. Websocket
// subscribers listen on their own tenant's channel only, so an event can
// never reach a user of another organization.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/notevault/internal/models"
)

// Event types.
const (
	NoteCreated = "note.created"
	NoteUpdated = "note.updated"
	NoteDeleted = "note.deleted"
)

// subscriberBuffer is the per-subscription channel size. A subscriber
// that falls this far behind starts losing events instead of blocking
// publishers.
const subscriberBuffer = 64

// Event is one note change. Note is nil for NoteDeleted.
type Event struct {
	Type     string       `json:"type"`
	TenantID uuid.UUID    `json:"organization_id"`
	NoteID   uuid.UUID    `json:"note_id"`
	ActorID  uuid.UUID    `json:"actor_id"`
	Note     *models.Note `json:"note,omitempty"`
	At       time.Time    `json:"at"`
}

// NewNoteEvent builds an event for a change made by actorID.
func NewNoteEvent(eventType string, note *models.Note, actorID uuid.UUID) Event {
	ev := Event{
		Type:     eventType,
		TenantID: note.TenantID,
		NoteID:   note.ID,
		ActorID:  actorID,
		At:       time.Now().UTC(),
	}
	if eventType != NoteDeleted {
		ev.Note = note
	}
	return ev
}

// Channel names the pub/sub channel for a tenant.
func Channel(tenantID uuid.UUID) string {
	return "notes:" + tenantID.String()
}

// Subscription is a live feed of one tenant's events. Close it when done;
// C is closed afterwards.
type Subscription interface {
	C() <-chan Event
	Close() error
}

// Bus publishes and subscribes to note events.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, tenantID uuid.UUID) (Subscription, error)
}
