package repository

import "context"

// MetaPurpose scopes a meta map to one reconciliation concern.
type MetaPurpose string

const (
	MetaPurposeMirror MetaPurpose = "mirror"
	MetaPurposeStudy  MetaPurpose = "study"
)

// MetaStore persists the event-key to remote-event-id mapping, one map per
// (user, purpose). Load tolerates missing or corrupt state by returning an
// empty map; Save replaces the whole map atomically.
type MetaStore interface {
	Load(ctx context.Context, userID string, purpose MetaPurpose) (map[string]string, error)
	Save(ctx context.Context, userID string, purpose MetaPurpose, meta map[string]string) error
}

// ReconcileWithLive drops meta entries whose remote event id is not present
// in the live listing. This self-heals drift caused by events deleted
// directly in the remote calendar.
func ReconcileWithLive(meta map[string]string, liveIDs map[string]bool) map[string]string {
	reconciled := make(map[string]string, len(meta))
	for key, id := range meta {
		if liveIDs[id] {
			reconciled[key] = id
		}
	}
	return reconciled
}
