package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/notion-records/pkg/notion"
)

// Action names the kind of change a record went through.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionArchived Action = "archived"
)

// Event represents the payload published downstream after a record mutation.
type Event struct {
	ID         string        `json:"id"`
	Action     Action        `json:"action"`
	DatabaseID string        `json:"database_id"`
	RecordID   string        `json:"record_id"`
	Record     notion.Record `json:"record,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEvent constructs an Event for a record returned by the API.
func NewEvent(action Action, databaseID string, record notion.Record) Event {
	var recordID string
	if id, ok := record["id"].(string); ok {
		recordID = id
	}
	return Event{
		ID:         uuid.NewString(),
		Action:     action,
		DatabaseID: databaseID,
		RecordID:   recordID,
		Record:     record,
		OccurredAt: time.Now().UTC(),
	}
}

// attributes are the message attributes queue-style sinks attach to an event.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":    e.ID,
		"action":      string(e.Action),
		"database_id": e.DatabaseID,
	}
}
