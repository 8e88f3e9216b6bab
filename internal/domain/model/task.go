package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskKind discriminates task type variants.
type TaskKind string

const (
	// TaskKindEmail delivers a message over SMTP.
	TaskKindEmail TaskKind = "email"
	// TaskKindHTTP issues a user-declared HTTP request.
	TaskKindHTTP TaskKind = "http"
)

// Valid returns true if the task kind is a known variant.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskKindEmail, TaskKindHTTP:
		return true
	default:
		return false
	}
}

// String returns the string representation of the task kind.
func (k TaskKind) String() string {
	return string(k)
}

// Task is a queued, retriable unit of side-effectful work.
type Task struct {
	// ID is time-ordered (UUIDv7) so that (scheduled_at, id) forms a stable
	// keyset cursor.
	ID          uuid.UUID `json:"id"           db:"id"`
	Type        TaskType  `json:"type"         db:"task_type"`
	Tags        []string  `json:"tags"         db:"tags"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	// RetryAttempt counts delivery failures; nil until the first failure.
	RetryAttempt *int `json:"retry_attempt,omitempty" db:"retry_attempt"`
}

// TaskCursor is the keyset position of the last task returned by a due-task
// page.
type TaskCursor struct {
	ScheduledAt time.Time
	ID          uuid.UUID
}

// FindDueTasksParams bounds one page of the drain loop.
type FindDueTasksParams struct {
	// Before is the due horizon, normally the drain start time so tasks
	// scheduled mid-drain wait for the next run.
	Before time.Time
	// After, when set, resumes after the previous page's last row.
	After *TaskCursor
	Limit int
}

// TaskType is the tagged union of task payloads.
type TaskType struct {
	Kind  TaskKind
	Email *EmailTaskType
	HTTP  *HTTPTaskType
}

// EmailTaskType is the payload of an email task.
type EmailTaskType struct {
	To      []string     `json:"to"`
	Content EmailContent `json:"content"`
}

// HTTPTaskType is the payload of an HTTP task.
type HTTPTaskType struct {
	URL     string            `json:"url"`
	Method  *string           `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// EmailContent is either a literal message or a template rendered at send
// time. Exactly one field is set.
type EmailContent struct {
	Custom   *CustomEmail   `json:"custom,omitempty"`
	Template *EmailTemplate `json:"template,omitempty"`
}

// CustomEmail is a literal mail body.
type CustomEmail struct {
	Subject string  `json:"subject"`
	Text    string  `json:"text"`
	HTML    *string `json:"html,omitempty"`
}

// EmailTemplate references a server-side template; the engine ships one
// template describing tracker changes.
type EmailTemplate struct {
	TrackerChanges *TrackerChangesTemplate `json:"trackerChanges,omitempty"`
}

// TrackerChangesTemplate carries the data of the tracker-changes template:
// the new revision value on success, the error message on final failure.
type TrackerChangesTemplate struct {
	TrackerID   uuid.UUID       `json:"trackerId"`
	TrackerName string          `json:"trackerName"`
	Result      TrackerRunResult `json:"result"`
}

// TrackerRunResult is the ok/err union of a tracker run outcome.
type TrackerRunResult struct {
	OK  json.RawMessage `json:"ok,omitempty"`
	Err *string         `json:"err,omitempty"`
}

// OkResult wraps a successful run value.
func OkResult(value json.RawMessage) TrackerRunResult {
	return TrackerRunResult{OK: value}
}

// ErrResult wraps a failed run message.
func ErrResult(message string) TrackerRunResult {
	return TrackerRunResult{Err: &message}
}

type emailTaskEnvelope struct {
	Kind TaskKind `json:"type"`
	*EmailTaskType
}

type httpTaskEnvelope struct {
	Kind TaskKind `json:"type"`
	*HTTPTaskType
}

// MarshalJSON flattens the active variant alongside the type tag.
func (t TaskType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TaskKindEmail:
		if t.Email == nil {
			return nil, fmt.Errorf("email task payload is not set")
		}
		return json.Marshal(emailTaskEnvelope{Kind: t.Kind, EmailTaskType: t.Email})
	case TaskKindHTTP:
		if t.HTTP == nil {
			return nil, fmt.Errorf("http task payload is not set")
		}
		return json.Marshal(httpTaskEnvelope{Kind: t.Kind, HTTPTaskType: t.HTTP})
	default:
		return nil, fmt.Errorf("unknown task kind %q", t.Kind)
	}
}

// UnmarshalJSON peeks at the type tag and decodes the matching variant.
func (t *TaskType) UnmarshalJSON(data []byte) error {
	var tag struct {
		Kind TaskKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Kind {
	case TaskKindEmail:
		var email EmailTaskType
		if err := json.Unmarshal(data, &email); err != nil {
			return err
		}
		*t = TaskType{Kind: tag.Kind, Email: &email}
		return nil
	case TaskKindHTTP:
		var httpTask HTTPTaskType
		if err := json.Unmarshal(data, &httpTask); err != nil {
			return err
		}
		*t = TaskType{Kind: tag.Kind, HTTP: &httpTask}
		return nil
	default:
		return fmt.Errorf("unknown task kind %q", tag.Kind)
	}
}
