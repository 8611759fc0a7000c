package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

type fakeEventStore struct {
	mu       sync.Mutex
	events   map[string]domain.CalendarEvent
	nextID   int
	listErr  error
	failKeys map[string]error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]domain.CalendarEvent)}
}

func (f *fakeEventStore) ListEvents(ctx context.Context, calendarID string, window repository.EventWindow) ([]domain.CalendarEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.CalendarEvent
	for _, event := range f.events {
		if !event.End.After(window.Min) || !event.Start.Before(window.Max) {
			continue
		}
		if window.Query != "" && !strings.Contains(event.Summary, window.Query) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (f *fakeEventStore) BatchUpsert(ctx context.Context, calendarID string, items []repository.EventUpsert) (map[string]repository.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make(map[string]repository.UpsertResult, len(items))
	for _, item := range items {
		if err := f.failKeys[item.Key]; err != nil {
			results[item.Key] = repository.UpsertResult{Err: err}
			continue
		}
		id := item.EventID
		if id == "" {
			f.nextID++
			id = fmt.Sprintf("evt-%d", f.nextID)
		}
		f.events[id] = domain.CalendarEvent{
			ID:      id,
			Summary: item.Body.Summary,
			Start:   item.Body.Start,
			End:     item.Body.End,
		}
		results[item.Key] = repository.UpsertResult{EventID: id}
	}
	return results, nil
}

func (f *fakeEventStore) BatchDelete(ctx context.Context, calendarID string, eventIDs []string) (map[string]error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make(map[string]error, len(eventIDs))
	for _, id := range eventIDs {
		delete(f.events, id)
		results[id] = nil
	}
	return results, nil
}

func (f *fakeEventStore) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
}

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeEventStore) summaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, event := range f.events {
		out = append(out, event.Summary)
	}
	return out
}

type fakeUserRepo struct{}

func (fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Status: "active"}, nil
}

func (fakeUserRepo) ListActive(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (fakeUserRepo) Upsert(ctx context.Context, user *domain.User) error { return nil }

type fakeDeadlineRepo struct {
	open []domain.Deadline
}

func (f *fakeDeadlineRepo) GetByID(ctx context.Context, id int64) (*domain.Deadline, error) {
	return nil, domain.ErrDeadlineNotFound
}

func (f *fakeDeadlineRepo) List(ctx context.Context, filter repository.DeadlineFilter) ([]domain.Deadline, error) {
	return f.open, nil
}

func (f *fakeDeadlineRepo) ListOpen(ctx context.Context, userID string) ([]domain.Deadline, error) {
	return f.open, nil
}

func (f *fakeDeadlineRepo) Upsert(ctx context.Context, deadline *domain.Deadline) (*domain.Deadline, error) {
	return deadline, nil
}

func (f *fakeDeadlineRepo) SetCompleted(ctx context.Context, id int64, completed bool) error {
	return nil
}

type fakeMetaStore struct {
	mu    sync.Mutex
	maps  map[string]map[string]string
	saves int
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{maps: make(map[string]map[string]string)}
}

func (f *fakeMetaStore) Load(ctx context.Context, userID string, purpose repository.MetaPurpose) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.maps[userID+"/"+string(purpose)] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeMetaStore) Save(ctx context.Context, userID string, purpose repository.MetaPurpose, meta map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make(map[string]string, len(meta))
	for k, v := range meta {
		stored[k] = v
	}
	f.maps[userID+"/"+string(purpose)] = stored
	f.saves++
	return nil
}

func (f *fakeMetaStore) mirrorMap(userID string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maps[userID+"/mirror"]
}

func openDeadline(id int64, due time.Time) domain.Deadline {
	return domain.Deadline{
		ID:         id,
		UserID:     "u1",
		CourseID:   "c1",
		TimeString: fmt.Sprintf("Assignment %d due", id),
		URL:        fmt.Sprintf("https://lms/mod/assign?id=%d", id),
		DueAt:      &due,
		Course: &domain.Course{
			ID:          "c1",
			UserID:      "u1",
			LMSCourseID: "101",
			Name:        "[CS2204] Computer Networks",
		},
	}
}

func newTestSyncer(store *fakeEventStore, deadlines *fakeDeadlineRepo, meta *fakeMetaStore, now time.Time) *Syncer {
	syncer := New(deadlines, fakeUserRepo{}, store, meta, nil, Config{Timezone: time.UTC})
	return syncer.WithClock(func() time.Time { return now })
}

func TestSyncCreatesEventsForOpenDeadlines(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{
		openDeadline(1, now.Add(48*time.Hour)),
		openDeadline(2, now.Add(96*time.Hour)),
	}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	result, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Created != 2 || result.Updated != 0 || result.Deleted != 0 {
		t.Errorf("result = %+v, want 2 created", result)
	}
	if store.count() != 2 {
		t.Errorf("remote event count = %d, want 2", store.count())
	}
	if len(meta.mirrorMap("u1")) != 2 {
		t.Errorf("meta size = %d, want 2", len(meta.mirrorMap("u1")))
	}
	for _, summary := range store.summaries() {
		if !strings.HasPrefix(summary, "[PENDING] ") {
			t.Errorf("future deadline summary = %q, want [PENDING] prefix", summary)
		}
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{openDeadline(1, now.Add(48 * time.Hour))}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	if _, err := syncer.Sync(context.Background(), "u1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if second.Created != 0 || second.Deleted != 0 {
		t.Errorf("second pass created=%d deleted=%d, want 0/0", second.Created, second.Deleted)
	}
	if second.Updated != 1 {
		t.Errorf("second pass updated = %d, want 1", second.Updated)
	}
	if store.count() != 1 {
		t.Errorf("event count after two passes = %d, want 1", store.count())
	}
}

func TestSyncRemovesEventForCompletedDeadline(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{openDeadline(1, now.Add(48 * time.Hour))}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	if _, err := syncer.Sync(context.Background(), "u1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	deadlines.open = nil
	result, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", result.Deleted)
	}
	if store.count() != 0 {
		t.Errorf("stale event should be gone, %d remain", store.count())
	}
	if len(meta.mirrorMap("u1")) != 0 {
		t.Errorf("meta should be empty, got %v", meta.mirrorMap("u1"))
	}
}

func TestSyncSelfHealsAfterRemoteDeletion(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{openDeadline(1, now.Add(48 * time.Hour))}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	if _, err := syncer.Sync(context.Background(), "u1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	// The user deletes the event directly in the calendar UI.
	for _, id := range meta.mirrorMap("u1") {
		store.remove(id)
	}

	result, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("Created = %d, want 1 (recreated)", result.Created)
	}
	if store.count() != 1 {
		t.Errorf("event count = %d, want 1", store.count())
	}
}

func TestSyncStatusFlipKeepsEventIdentity(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{openDeadline(1, now.Add(time.Hour))}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	if _, err := syncer.Sync(context.Background(), "u1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	firstMeta := meta.mirrorMap("u1")

	// Two hours later the deadline is overdue but otherwise unchanged.
	later := newTestSyncer(store, deadlines, meta, now.Add(2*time.Hour))
	result, err := later.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Created != 0 || result.Deleted != 0 || result.Updated != 1 {
		t.Errorf("status flip should update in place, got %+v", result)
	}
	for key, id := range meta.mirrorMap("u1") {
		if firstMeta[key] != id {
			t.Errorf("event id changed for key %s: %q -> %q", key, firstMeta[key], id)
		}
	}
	for _, summary := range store.summaries() {
		if !strings.HasPrefix(summary, "[OVERDUE] ") {
			t.Errorf("overdue summary = %q, want [OVERDUE] prefix", summary)
		}
	}
}

func TestSyncListingFailureAbortsBeforeSave(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	store.listErr = errors.New("token expired")
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{openDeadline(1, now.Add(48 * time.Hour))}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	_, err := syncer.Sync(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error when the live listing fails")
	}
	if !domain.IsDomainError(err, domain.ErrCodeUnavailable) {
		t.Errorf("error should carry the UNAVAILABLE code, got %v", err)
	}
	if meta.saves != 0 {
		t.Errorf("meta must not be persisted after an aborted pass, saves = %d", meta.saves)
	}
}

func TestSyncKeepsOldMappingWhenUpdateFails(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	store := newFakeEventStore()
	deadline := openDeadline(1, now.Add(48*time.Hour))
	deadlines := &fakeDeadlineRepo{open: []domain.Deadline{deadline}}
	meta := newFakeMetaStore()
	syncer := newTestSyncer(store, deadlines, meta, now)

	if _, err := syncer.Sync(context.Background(), "u1"); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	key := domain.MirrorEventKey(deadline.Course.Scope(), deadline.URL, deadline.TimeString)
	oldID := meta.mirrorMap("u1")[key]
	if oldID == "" {
		t.Fatal("first pass should have recorded a mapping")
	}

	store.failKeys = map[string]error{key: errors.New("backend error")}
	result, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if got := meta.mirrorMap("u1")[key]; got != oldID {
		t.Errorf("failed update should keep the old mapping, got %q want %q", got, oldID)
	}
}
