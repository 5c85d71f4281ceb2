package models

import "time"

// LibraryEvent is a single activity log entry.
type LibraryEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // SCAN | IMPORT | THUMBNAIL | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Library event types.
const (
	EventScan      = "SCAN"
	EventImport    = "IMPORT"
	EventThumbnail = "THUMBNAIL"
	EventError     = "ERROR"
)
