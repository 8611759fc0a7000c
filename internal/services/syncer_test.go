package services

import (
	"context"
	"testing"
	"time"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
	"github.com/campushub/backend/usecase/mirror"
)

// gatedUserRepo blocks GetByID until the gate closes, letting tests hold a
// sync pass open while probing the coordinator.
type gatedUserRepo struct {
	gate chan struct{}
}

func (r *gatedUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	select {
	case <-r.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &domain.User{ID: id, Status: "active"}, nil
}

func (r *gatedUserRepo) ListActive(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (r *gatedUserRepo) Upsert(ctx context.Context, user *domain.User) error { return nil }

type emptyDeadlineRepo struct{}

func (emptyDeadlineRepo) GetByID(ctx context.Context, id int64) (*domain.Deadline, error) {
	return nil, domain.ErrDeadlineNotFound
}

func (emptyDeadlineRepo) List(ctx context.Context, filter repository.DeadlineFilter) ([]domain.Deadline, error) {
	return nil, nil
}

func (emptyDeadlineRepo) ListOpen(ctx context.Context, userID string) ([]domain.Deadline, error) {
	return nil, nil
}

func (emptyDeadlineRepo) Upsert(ctx context.Context, deadline *domain.Deadline) (*domain.Deadline, error) {
	return deadline, nil
}

func (emptyDeadlineRepo) SetCompleted(ctx context.Context, id int64, completed bool) error {
	return nil
}

type emptyEventStore struct{}

func (emptyEventStore) ListEvents(ctx context.Context, calendarID string, window repository.EventWindow) ([]domain.CalendarEvent, error) {
	return nil, nil
}

func (emptyEventStore) BatchUpsert(ctx context.Context, calendarID string, items []repository.EventUpsert) (map[string]repository.UpsertResult, error) {
	return map[string]repository.UpsertResult{}, nil
}

func (emptyEventStore) BatchDelete(ctx context.Context, calendarID string, eventIDs []string) (map[string]error, error) {
	return map[string]error{}, nil
}

type memMetaStore struct{}

func (memMetaStore) Load(ctx context.Context, userID string, purpose repository.MetaPurpose) (map[string]string, error) {
	return map[string]string{}, nil
}

func (memMetaStore) Save(ctx context.Context, userID string, purpose repository.MetaPurpose, meta map[string]string) error {
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newGatedCoordinator(gate chan struct{}) *SyncCoordinator {
	syncer := mirror.New(
		emptyDeadlineRepo{},
		&gatedUserRepo{gate: gate},
		emptyEventStore{},
		memMetaStore{},
		nil,
		mirror.Config{},
	)
	return NewSyncCoordinator(syncer, nil, nil, nil, time.Minute, false)
}

func TestTriggerMirrorCollapsesOverlappingRuns(t *testing.T) {
	gate := make(chan struct{})
	c := newGatedCoordinator(gate)

	if err := c.TriggerMirror("u1"); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	waitFor(t, func() bool { return c.IsRunning("u1") })

	if err := c.TriggerMirror("u1"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("overlapping trigger should report a conflict, got %v", err)
	}
	if err := c.RunMirror(context.Background(), "u1"); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Errorf("synchronous run should also be excluded, got %v", err)
	}

	close(gate)
	waitFor(t, func() bool { return !c.IsRunning("u1") })

	// Once the pass finishes the user can be triggered again.
	if err := c.RunMirror(context.Background(), "u1"); err != nil {
		t.Errorf("run after release: %v", err)
	}
}

func TestTriggerMirrorIsolatesUsers(t *testing.T) {
	gate := make(chan struct{})
	c := newGatedCoordinator(gate)

	if err := c.TriggerMirror("u1"); err != nil {
		t.Fatalf("trigger u1: %v", err)
	}
	waitFor(t, func() bool { return c.IsRunning("u1") })

	if err := c.TriggerMirror("u2"); err != nil {
		t.Errorf("a different user must run in parallel, got %v", err)
	}
	waitFor(t, func() bool { return c.IsRunning("u2") })

	close(gate)
	waitFor(t, func() bool { return !c.IsRunning("u1") && !c.IsRunning("u2") })
}
