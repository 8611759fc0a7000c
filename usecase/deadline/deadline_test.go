package deadline

import (
	"context"
	"testing"
	"time"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

type memDeadlineRepo struct {
	byID      map[int64]*domain.Deadline
	nextID    int64
	completed map[int64]bool
}

func newMemDeadlineRepo() *memDeadlineRepo {
	return &memDeadlineRepo{byID: make(map[int64]*domain.Deadline), completed: make(map[int64]bool)}
}

func (r *memDeadlineRepo) GetByID(ctx context.Context, id int64) (*domain.Deadline, error) {
	if d, ok := r.byID[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrDeadlineNotFound
}

func (r *memDeadlineRepo) List(ctx context.Context, filter repository.DeadlineFilter) ([]domain.Deadline, error) {
	var out []domain.Deadline
	for _, d := range r.byID {
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *memDeadlineRepo) ListOpen(ctx context.Context, userID string) ([]domain.Deadline, error) {
	return nil, nil
}

func (r *memDeadlineRepo) Upsert(ctx context.Context, deadline *domain.Deadline) (*domain.Deadline, error) {
	r.nextID++
	deadline.ID = r.nextID
	copied := *deadline
	r.byID[deadline.ID] = &copied
	return deadline, nil
}

func (r *memDeadlineRepo) SetCompleted(ctx context.Context, id int64, completed bool) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrDeadlineNotFound
	}
	r.completed[id] = completed
	return nil
}

type memCourseRepo struct {
	upserts int
}

func (r *memCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	return nil, domain.ErrCourseNotFound
}

func (r *memCourseRepo) UpsertByLMSID(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	r.upserts++
	if course.ID == "" {
		course.ID = "course-" + course.LMSCourseID
	}
	return course, nil
}

type recordingTrigger struct {
	mirrors    []string
	studyPlans []string
	err        error
}

func (t *recordingTrigger) TriggerMirror(userID string) error {
	t.mirrors = append(t.mirrors, userID)
	return t.err
}

func (t *recordingTrigger) TriggerStudyPlan(userID string) error {
	t.studyPlans = append(t.studyPlans, userID)
	return t.err
}

func ingestRow(lmsID, name, timeString string) domain.Deadline {
	due := time.Date(2026, 3, 19, 18, 0, 0, 0, time.UTC)
	return domain.Deadline{
		TimeString: timeString,
		URL:        "https://lms/mod/assign?id=1",
		DueAt:      &due,
		Course:     &domain.Course{LMSCourseID: lmsID, Name: name},
	}
}

func TestIngestStoresRowsAndTriggersMirror(t *testing.T) {
	deadlines := newMemDeadlineRepo()
	courses := &memCourseRepo{}
	trigger := &recordingTrigger{}
	uc := New(deadlines, courses, trigger, nil)

	rows := []domain.Deadline{
		ingestRow("101", "[CS2204] Networks", "Lab 3 due"),
		ingestRow("101", "[CS2204] Networks", "Lab 4 due"),
	}
	stored, err := uc.Ingest(context.Background(), "u1", rows)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2", stored)
	}
	if courses.upserts != 2 {
		t.Errorf("course upserts = %d, want 2", courses.upserts)
	}
	if len(trigger.mirrors) != 1 || trigger.mirrors[0] != "u1" {
		t.Errorf("mirror triggers = %v, want one for u1", trigger.mirrors)
	}
	for _, d := range deadlines.byID {
		if d.UserID != "u1" {
			t.Errorf("stored deadline has user %q, want u1", d.UserID)
		}
	}
}

func TestIngestSkipsRowsWithoutCourse(t *testing.T) {
	deadlines := newMemDeadlineRepo()
	uc := New(deadlines, &memCourseRepo{}, nil, nil)

	row := ingestRow("", "", "orphan row")
	row.Course = nil

	stored, err := uc.Ingest(context.Background(), "u1", []domain.Deadline{row})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stored != 0 {
		t.Errorf("stored = %d, want 0", stored)
	}
}

func TestSetCompletedEnforcesOwnership(t *testing.T) {
	deadlines := newMemDeadlineRepo()
	trigger := &recordingTrigger{}
	uc := New(deadlines, &memCourseRepo{}, trigger, nil)

	owned := ingestRow("101", "[CS2204] Networks", "Lab 3 due")
	owned.UserID = "u1"
	stored, _ := deadlines.Upsert(context.Background(), &owned)

	if err := uc.SetCompleted(context.Background(), "u2", stored.ID, true); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("foreign user should see not-found, got %v", err)
	}
	if len(trigger.mirrors) != 0 {
		t.Error("no mirror should be triggered for a rejected change")
	}

	if err := uc.SetCompleted(context.Background(), "u1", stored.ID, true); err != nil {
		t.Fatalf("owner completion: %v", err)
	}
	if !deadlines.completed[stored.ID] {
		t.Error("completion flag not persisted")
	}
	if len(trigger.mirrors) != 1 {
		t.Errorf("mirror triggers = %v, want one", trigger.mirrors)
	}
}

func TestSetCompletedIgnoresSyncConflict(t *testing.T) {
	deadlines := newMemDeadlineRepo()
	trigger := &recordingTrigger{err: domain.ErrSyncInProgress}
	uc := New(deadlines, &memCourseRepo{}, trigger, nil)

	owned := ingestRow("101", "[CS2204] Networks", "Lab 3 due")
	owned.UserID = "u1"
	stored, _ := deadlines.Upsert(context.Background(), &owned)

	if err := uc.SetCompleted(context.Background(), "u1", stored.ID, true); err != nil {
		t.Fatalf("a running sync must not fail the completion, got %v", err)
	}
}
