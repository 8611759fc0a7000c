// Package studyplan converts open deadlines into synthetic study-block
// events on the user's calendar. Tasks are ordered earliest-deadline-first
// and greedily assigned one-hour blocks from the free-slot scan, bounded by
// one block per task per day and never past the task's due date. The
// resulting events are reconciled with the same upsert/delete discipline as
// the deadline mirror.
package studyplan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
	"github.com/campushub/backend/usecase/estimate"
)

// studyMarker tags every study event summary so passes can list only the
// events this planner owns.
const studyMarker = "[STUDY]"

const colorStudy = "3"

type Config struct {
	// LookaheadDays bounds the free-slot scan.
	LookaheadDays int
	// ListWindow bounds the live listing used to reconcile the meta map.
	ListWindow time.Duration
	Timezone   *time.Location
}

func (c *Config) withDefaults() {
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 30
	}
	if c.ListWindow <= 0 {
		c.ListWindow = 60 * 24 * time.Hour
	}
	if c.Timezone == nil {
		c.Timezone = time.UTC
	}
}

// Result summarizes one planning pass.
type Result struct {
	UserID         string `json:"user_id"`
	Created        int    `json:"created"`
	Updated        int    `json:"updated"`
	Deleted        int    `json:"deleted"`
	Failed         int    `json:"failed"`
	TasksScheduled int    `json:"tasks_scheduled"`
	TasksExhausted int    `json:"tasks_exhausted"`
}

type Planner struct {
	deadlines  repository.DeadlineRepository
	users      repository.UserRepository
	events     repository.EventStore
	meta       repository.MetaStore
	courseText repository.CourseTextStore
	estimates  *estimate.Service
	slots      *SlotFinder
	logger     *zap.Logger
	cfg        Config
	now        func() time.Time
}

func New(
	deadlines repository.DeadlineRepository,
	users repository.UserRepository,
	events repository.EventStore,
	meta repository.MetaStore,
	courseText repository.CourseTextStore,
	estimates *estimate.Service,
	slots *SlotFinder,
	logger *zap.Logger,
	cfg Config,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.withDefaults()
	return &Planner{
		deadlines:  deadlines,
		users:      users,
		events:     events,
		meta:       meta,
		courseText: courseText,
		estimates:  estimates,
		slots:      slots,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock overrides the pass clock. Used by tests.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

// Plan runs one full study-plan reconciliation pass for the user.
func (p *Planner) Plan(ctx context.Context, userID string) (*Result, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	calendarID := user.TargetCalendar()
	now := p.now().In(p.cfg.Timezone)

	meta, err := p.meta.Load(ctx, userID, repository.MetaPurposeStudy)
	if err != nil {
		return nil, err
	}

	live, err := p.events.ListEvents(ctx, calendarID, repository.EventWindow{
		Min:   now,
		Max:   now.Add(p.cfg.ListWindow),
		Query: studyMarker,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "live event listing failed", err)
	}
	liveIDs := make(map[string]bool, len(live))
	for _, event := range live {
		liveIDs[event.ID] = true
	}
	meta = repository.ReconcileWithLive(meta, liveIDs)

	tasks, err := p.buildTasks(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	slots := p.slots.FindFreeSlots(ctx, calendarID, p.cfg.LookaheadDays)

	upserts, emitted := p.assign(userID, tasks, slots, meta)

	result := &Result{UserID: userID}
	for _, task := range tasks {
		switch task.State {
		case TaskStateScheduled:
			result.TasksScheduled++
		case TaskStateExhausted:
			result.TasksExhausted++
		}
	}

	if len(upserts) > 0 {
		results, err := p.events.BatchUpsert(ctx, calendarID, upserts)
		if err != nil {
			return nil, err
		}
		for _, item := range upserts {
			outcome, ok := results[item.Key]
			if !ok || outcome.Err != nil {
				result.Failed++
				if item.EventID == "" {
					// Unconfirmed inserts are dropped rather than guessed.
					delete(meta, item.Key)
				}
				continue
			}
			if item.EventID == "" {
				result.Created++
			} else {
				result.Updated++
			}
			meta[item.Key] = outcome.EventID
		}
	}

	var staleKeys []string
	var staleIDs []string
	for key, id := range meta {
		if !emitted[key] {
			staleKeys = append(staleKeys, key)
			staleIDs = append(staleIDs, id)
		}
	}
	if len(staleIDs) > 0 {
		deleteResults, err := p.events.BatchDelete(ctx, calendarID, staleIDs)
		if err != nil {
			return nil, err
		}
		for i, key := range staleKeys {
			if deleteErr := deleteResults[staleIDs[i]]; deleteErr != nil {
				result.Failed++
				continue
			}
			delete(meta, key)
			result.Deleted++
		}
	}

	if err := p.meta.Save(ctx, userID, repository.MetaPurposeStudy, meta); err != nil {
		return nil, err
	}

	p.logger.Info("study plan complete",
		zap.String("user_id", userID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("tasks_scheduled", result.TasksScheduled),
		zap.Int("tasks_exhausted", result.TasksExhausted))
	return result, nil
}

// buildTasks loads open deadlines, estimates effort for each, and returns
// schedulable tasks. Deadlines already overdue are mirrored elsewhere but
// get no study blocks.
func (p *Planner) buildTasks(ctx context.Context, userID string, now time.Time) ([]*ScheduledTask, error) {
	open, err := p.deadlines.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	var tasks []*ScheduledTask
	for i := range open {
		deadline := &open[i]
		if !deadline.IsOpen() {
			continue
		}
		due := deadline.DueAt.In(p.cfg.Timezone)
		if due.Before(now) {
			continue
		}

		var contextText string
		if p.courseText != nil {
			text, err := p.courseText.ReadCourseText(ctx, userID, deadline.CourseID)
			if err != nil {
				p.logger.Warn("course text unavailable",
					zap.Int64("deadline_id", deadline.ID),
					zap.Error(err))
			} else {
				contextText = text
			}
		}

		est := p.estimates.EstimateDeadline(ctx, deadline, contextText)
		tasks = append(tasks, newScheduledTask(deadline, est, due))
	}
	return tasks, nil
}

// assign walks tasks in earliest-deadline-first order and claims free slots
// for one-hour blocks. Small blocks are deliberately preferred over filling
// a slot's full capacity: spreading work across days beats concentration.
func (p *Planner) assign(userID string, tasks []*ScheduledTask, slots []domain.FreeSlot, meta map[string]string) ([]repository.EventUpsert, map[string]bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueAt.Before(tasks[j].DueAt)
	})

	var upserts []repository.EventUpsert
	emitted := make(map[string]bool)
	usedSlots := make(map[string]bool)
	blocksPerDay := make(map[string]map[string]int)

	for _, task := range tasks {
		days := blocksPerDay[task.Key]
		if days == nil {
			days = make(map[string]int)
			blocksPerDay[task.Key] = days
		}

		for _, slot := range slots {
			if task.RemainingHours <= 0 {
				break
			}
			if slot.Start.After(task.DueAt) {
				continue
			}
			if usedSlots[slot.Key()] {
				continue
			}
			day := slot.Start.In(p.cfg.Timezone).Format("2006-01-02")
			if days[day] >= 1 {
				continue
			}

			blockHours := minInt(1, task.RemainingHours, slot.MaxBlockHours)
			end := slot.Start.Add(time.Duration(blockHours) * time.Hour)
			key := domain.StudyEventKey(userID, task.DeadlineID, slot.Start.In(p.cfg.Timezone), blockHours)

			upserts = append(upserts, repository.EventUpsert{
				Key:     key,
				EventID: meta[key],
				Body:    p.eventBody(task, slot.Start, end, blockHours),
			})
			emitted[key] = true
			usedSlots[slot.Key()] = true
			days[day]++
			task.RemainingHours -= blockHours
		}
		task.finish()
	}
	return upserts, emitted
}

func (p *Planner) eventBody(task *ScheduledTask, start, end time.Time, blockHours int) domain.EventBody {
	var desc strings.Builder
	fmt.Fprintf(&desc, "Difficulty: %s%s (%d/5)\n",
		strings.Repeat("★", task.Difficulty),
		strings.Repeat("☆", 5-task.Difficulty),
		task.Difficulty)
	fmt.Fprintf(&desc, "Total: %dh | This block: %dh\n", task.TotalHours, blockHours)
	fmt.Fprintf(&desc, "Due: %s\n\n", task.DueAt.Format("Jan 02, 2006 at 15:04"))
	fmt.Fprintf(&desc, "Why: %s\n\n", task.Reason)
	desc.WriteString("Breakdown:\n")
	breakdown := task.Breakdown
	if len(breakdown) > 5 {
		breakdown = breakdown[:5]
	}
	for _, step := range breakdown {
		fmt.Fprintf(&desc, "  • %s\n", step)
	}
	resource := task.URL
	if resource == "" {
		resource = "no link provided"
	}
	fmt.Fprintf(&desc, "\nResource: %s\n", resource)

	return domain.EventBody{
		Summary:         fmt.Sprintf("%s %s - %s", studyMarker, task.CourseCode, task.Title),
		Description:     desc.String(),
		Start:           start,
		End:             end,
		ColorID:         colorStudy,
		ReminderMinutes: []int{10},
	}
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
