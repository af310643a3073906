// Package eventstream defines the events published when an exchange is
// recorded, and the Publisher implementations that carry them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/synergyreader/synergy/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEntryRecorded is emitted after an exchange is persisted.
	EventTypeEntryRecorded = "synergy.entry.recorded"
)

// EntryRecordedEvent is a transport-neutral event payload for a recorded
// exchange.
type EntryRecordedEvent struct {
	SchemaVersion int              `json:"schema_version"`
	EventType     string           `json:"event_type"`
	EventID       string           `json:"event_id"`
	EmittedAt     time.Time        `json:"emitted_at"`
	RequestMeta   EntryRequestMeta `json:"request_meta"`
	Entry         *storage.Entry   `json:"entry"`
}

// EntryRequestMeta captures request lifecycle metadata for the event.
type EntryRequestMeta struct {
	Path        string    `json:"path,omitempty"`
	Upstream    string    `json:"upstream,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	HTTPStatus  int       `json:"http_status"`
}

// NewEntryRecordedEvent builds the event for a stored entry with a fresh
// event id.
func NewEntryRecordedEvent(entry *storage.Entry, meta EntryRequestMeta) *EntryRecordedEvent {
	if meta.DurationMs == 0 && !meta.StartedAt.IsZero() && !meta.CompletedAt.IsZero() {
		meta.DurationMs = meta.CompletedAt.Sub(meta.StartedAt).Milliseconds()
	}

	return &EntryRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeEntryRecorded,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		RequestMeta:   meta,
		Entry:         entry,
	}
}
