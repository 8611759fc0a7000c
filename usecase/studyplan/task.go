package studyplan

import (
	"time"

	"github.com/campushub/backend/domain"
)

// TaskState tracks a task through one planning pass. States only move
// forward: PENDING until all hours are placed (SCHEDULED) or no eligible
// slot remains before the deadline (EXHAUSTED).
type TaskState string

const (
	TaskStatePending   TaskState = "PENDING"
	TaskStateScheduled TaskState = "SCHEDULED"
	TaskStateExhausted TaskState = "EXHAUSTED"
)

// ScheduledTask is the in-memory planning view of one open deadline.
type ScheduledTask struct {
	Key            string
	DeadlineID     int64
	Title          string
	CourseLabel    string
	CourseCode     string
	URL            string
	DueAt          time.Time
	TotalHours     int
	RemainingHours int
	Difficulty     int
	Reason         string
	Breakdown      []string
	State          TaskState
}

func newScheduledTask(deadline *domain.Deadline, estimate *domain.Estimate, due time.Time) *ScheduledTask {
	title := deadline.TimeString
	if len(title) > 60 {
		title = title[:60]
	}
	task := &ScheduledTask{
		Key:            domain.StudyTaskKey(deadline.UserID, deadline.ID),
		DeadlineID:     deadline.ID,
		Title:          title,
		URL:            deadline.URL,
		DueAt:          due,
		TotalHours:     estimate.Hours,
		RemainingHours: estimate.Hours,
		Difficulty:     estimate.Difficulty,
		Reason:         estimate.Reason,
		Breakdown:      estimate.Breakdown,
		State:          TaskStatePending,
	}
	if deadline.Course != nil {
		task.CourseLabel = deadline.Course.Name
		task.CourseCode = deadline.Course.Code()
	}
	return task
}

// finish resolves the terminal state once the assignment loop is done with
// the task. Under-scheduling is accepted, not an error: the task simply
// ends with less calendar presence than its estimated effort.
func (t *ScheduledTask) finish() {
	if t.RemainingHours == 0 {
		t.State = TaskStateScheduled
		return
	}
	t.State = TaskStateExhausted
}
