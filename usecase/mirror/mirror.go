// Package mirror reconciles open LMS deadlines against the user's remote
// calendar: one event per open deadline, stale events removed, nothing else
// on the calendar touched. The pass is idempotent; running it twice with
// unchanged input produces zero net writes.
package mirror

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

const (
	colorOverdue = "11"
	colorPending = "9"
)

type Config struct {
	// EventDuration is how long each mirror event lasts on the calendar.
	EventDuration time.Duration
	// ReminderMinutes configures popup reminders on every mirror event.
	ReminderMinutes []int
	// ListWindowPast/Future bound the live listing used to reconcile the
	// meta map. The window must cover every event the service may own, or
	// reconciliation would prune mappings for events that still exist.
	ListWindowPast   time.Duration
	ListWindowFuture time.Duration
	Timezone         *time.Location
}

func (c *Config) withDefaults() {
	if c.EventDuration <= 0 {
		c.EventDuration = time.Hour
	}
	if len(c.ReminderMinutes) == 0 {
		c.ReminderMinutes = []int{60, 1440}
	}
	if c.ListWindowPast <= 0 {
		c.ListWindowPast = 30 * 24 * time.Hour
	}
	if c.ListWindowFuture <= 0 {
		c.ListWindowFuture = 365 * 24 * time.Hour
	}
	if c.Timezone == nil {
		c.Timezone = time.UTC
	}
}

// Result summarizes one mirror pass.
type Result struct {
	UserID  string `json:"user_id"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

type Syncer struct {
	deadlines repository.DeadlineRepository
	users     repository.UserRepository
	events    repository.EventStore
	meta      repository.MetaStore
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

func New(
	deadlines repository.DeadlineRepository,
	users repository.UserRepository,
	events repository.EventStore,
	meta repository.MetaStore,
	logger *zap.Logger,
	cfg Config,
) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.withDefaults()
	return &Syncer{
		deadlines: deadlines,
		users:     users,
		events:    events,
		meta:      meta,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock overrides the pass clock. Used by tests.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Sync runs one full mirror reconciliation pass for the user. Listing or
// whole-batch failures abort the pass before the meta map is persisted, so
// a failed run leaves the last-known-good mapping untouched.
func (s *Syncer) Sync(ctx context.Context, userID string) (*Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	calendarID := user.TargetCalendar()
	now := s.now().In(s.cfg.Timezone)

	meta, err := s.meta.Load(ctx, userID, repository.MetaPurposeMirror)
	if err != nil {
		return nil, err
	}

	live, err := s.events.ListEvents(ctx, calendarID, repository.EventWindow{
		Min: now.Add(-s.cfg.ListWindowPast),
		Max: now.Add(s.cfg.ListWindowFuture),
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "live event listing failed", err)
	}
	liveIDs := make(map[string]bool, len(live))
	for _, event := range live {
		liveIDs[event.ID] = true
	}
	meta = repository.ReconcileWithLive(meta, liveIDs)

	open, err := s.deadlines.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	var upserts []repository.EventUpsert
	seen := make(map[string]bool, len(open))
	for i := range open {
		deadline := &open[i]
		if !deadline.IsOpen() || deadline.Course == nil {
			continue
		}
		key := domain.MirrorEventKey(deadline.Course.Scope(), deadline.URL, deadline.TimeString)
		seen[key] = true
		upserts = append(upserts, repository.EventUpsert{
			Key:     key,
			EventID: meta[key],
			Body:    s.eventBody(deadline, now),
		})
	}

	result := &Result{UserID: userID}
	if len(upserts) > 0 {
		results, err := s.events.BatchUpsert(ctx, calendarID, upserts)
		if err != nil {
			return nil, err
		}
		for _, item := range upserts {
			outcome, ok := results[item.Key]
			if !ok || outcome.Err != nil {
				// The old mapping (if any) stays: a failed update does not
				// mean the event vanished.
				result.Failed++
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
		if !seen[key] {
			staleKeys = append(staleKeys, key)
			staleIDs = append(staleIDs, id)
		}
	}
	if len(staleIDs) > 0 {
		deleteResults, err := s.events.BatchDelete(ctx, calendarID, staleIDs)
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

	if err := s.meta.Save(ctx, userID, repository.MetaPurposeMirror, meta); err != nil {
		return nil, err
	}

	s.logger.Info("mirror sync complete",
		zap.String("user_id", userID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed))
	return result, nil
}

// eventBody computes the desired remote state for one deadline. Only the
// body reflects transient status; the event key never does.
func (s *Syncer) eventBody(deadline *domain.Deadline, now time.Time) domain.EventBody {
	due := deadline.DueAt.In(s.cfg.Timezone)
	status := "PENDING"
	color := colorPending
	if deadline.IsOverdue(now) {
		status = "OVERDUE"
		color = colorOverdue
	}

	return domain.EventBody{
		Summary: fmt.Sprintf("[%s] %s", status, deadline.TimeString),
		Description: fmt.Sprintf("Course: %s\nDue: %s\nLink: %s",
			deadline.Course.Name,
			due.Format("02/01 15:04"),
			deadline.URL),
		Start:           due,
		End:             due.Add(s.cfg.EventDuration),
		ColorID:         color,
		ReminderMinutes: s.cfg.ReminderMinutes,
	}
}
