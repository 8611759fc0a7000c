package studyplan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
	"github.com/campushub/backend/usecase"
)

// fakeEventStore keeps events in memory and honors the listing window and
// query filter the way the remote calendar does.
type fakeEventStore struct {
	mu        sync.Mutex
	events    map[string]domain.CalendarEvent
	nextID    int
	listErr   error
	failKeys  map[string]error
	deleted   []string
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
		if !event.AllDay && (!event.End.After(window.Min) || !event.Start.Before(window.Max)) {
			continue
		}
		if window.Query != "" && !strings.Contains(event.Summary, window.Query) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
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
		f.deleted = append(f.deleted, id)
		results[id] = nil
	}
	return results, nil
}

func (f *fakeEventStore) addBusy(id string, event domain.CalendarEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = id
	f.events[id] = event
}

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
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

func (f *fakeMetaStore) scope(userID string, purpose repository.MetaPurpose) string {
	return userID + "/" + string(purpose)
}

func (f *fakeMetaStore) Load(ctx context.Context, userID string, purpose repository.MetaPurpose) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.maps[f.scope(userID, purpose)] {
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
	f.maps[f.scope(userID, purpose)] = stored
	f.saves++
	return nil
}

func (f *fakeMetaStore) current(userID string, purpose repository.MetaPurpose) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maps[f.scope(userID, purpose)]
}

type fixedEstimator struct {
	estimate domain.Estimate
}

func (f fixedEstimator) Estimate(ctx context.Context, req usecase.EstimateRequest) (*domain.Estimate, error) {
	e := f.estimate
	return &e, nil
}
