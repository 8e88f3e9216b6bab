package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationDestination records where an action fan-out went. Exactly one
// field is set.
type NotificationDestination struct {
	ServerLog bool     `json:"serverLog,omitempty"`
	Email     []string `json:"email,omitempty"`
	Webhook   *string  `json:"webhook,omitempty"`
}

// Notification is an audit record of a dispatched action: what was handed to
// the task queue (or the log sink) and when.
type Notification struct {
	ID          uuid.UUID               `json:"id"           db:"id"`
	Destination NotificationDestination `json:"destination"  db:"destination"`
	Content     json.RawMessage         `json:"content"      db:"content"`
	ScheduledAt time.Time               `json:"scheduled_at" db:"scheduled_at"`
}
