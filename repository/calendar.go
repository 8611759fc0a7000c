package repository

import (
	"context"
	"time"

	"github.com/campushub/backend/domain"
)

// EventWindow bounds a calendar listing. Query optionally restricts the
// listing to events whose text matches (the study plan tags its events with
// a summary marker for this purpose).
type EventWindow struct {
	Min   time.Time
	Max   time.Time
	Query string
}

// EventUpsert describes one desired event. EventID is the known remote id
// for an update, or empty for an insert.
type EventUpsert struct {
	Key     string
	EventID string
	Body    domain.EventBody
}

// UpsertResult carries the outcome for a single batch item. Exactly one of
// EventID or Err is meaningful.
type UpsertResult struct {
	EventID string
	Err     error
}

// EventStore abstracts the remote calendar service. Batch operations
// isolate per-item failures: one event failing must not abort its siblings.
// A non-nil error return means the batch as a whole could not be attempted
// (for example an auth failure) and the caller should abort its pass.
type EventStore interface {
	ListEvents(ctx context.Context, calendarID string, window EventWindow) ([]domain.CalendarEvent, error)
	BatchUpsert(ctx context.Context, calendarID string, items []EventUpsert) (map[string]UpsertResult, error)
	BatchDelete(ctx context.Context, calendarID string, eventIDs []string) (map[string]error, error)
}
