// Package deadline exposes the deadline store to the transport layer and
// reacts to completion changes by re-triggering the calendar mirror.
package deadline

import (
	"context"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
	"github.com/campushub/backend/usecase"
)

type UseCase struct {
	deadlines repository.DeadlineRepository
	courses   repository.CourseRepository
	trigger   usecase.SyncTrigger
	logger    *zap.Logger
}

func New(deadlines repository.DeadlineRepository, courses repository.CourseRepository, trigger usecase.SyncTrigger, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		deadlines: deadlines,
		courses:   courses,
		trigger:   trigger,
		logger:    logger,
	}
}

func (uc *UseCase) ListDeadlines(ctx context.Context, filter repository.DeadlineFilter) ([]domain.Deadline, error) {
	return uc.deadlines.List(ctx, filter)
}

// SetCompleted flips a deadline's completion flag and kicks off a mirror
// pass so the calendar reflects the change promptly. Rows are never
// deleted; completion is the removal trigger for remote events.
func (uc *UseCase) SetCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	deadline, err := uc.deadlines.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if deadline.UserID != userID {
		return domain.ErrDeadlineNotFound
	}
	if err := uc.deadlines.SetCompleted(ctx, id, completed); err != nil {
		return err
	}

	if uc.trigger != nil {
		if err := uc.trigger.TriggerMirror(userID); err != nil && !domain.IsDomainError(err, domain.ErrCodeConflict) {
			uc.logger.Warn("mirror trigger failed after completion change",
				zap.Int64("deadline_id", id),
				zap.Error(err))
		}
	}
	return nil
}

// Ingest upserts scraped deadlines for a user: the course row first, then
// the deadline keyed by (user, course, url, time_string). A scrape that
// reports submission flips the completion flag.
func (uc *UseCase) Ingest(ctx context.Context, userID string, rows []domain.Deadline) (int, error) {
	var stored int
	for i := range rows {
		row := rows[i]
		row.UserID = userID

		if row.Course == nil || row.Course.LMSCourseID == "" {
			uc.logger.Warn("ingest row missing course, skipping", zap.String("time_string", row.TimeString))
			continue
		}
		row.Course.UserID = userID
		course, err := uc.courses.UpsertByLMSID(ctx, row.Course)
		if err != nil {
			return stored, err
		}
		row.CourseID = course.ID

		if _, err := uc.deadlines.Upsert(ctx, &row); err != nil {
			return stored, err
		}
		stored++
	}

	if stored > 0 && uc.trigger != nil {
		if err := uc.trigger.TriggerMirror(userID); err != nil && !domain.IsDomainError(err, domain.ErrCodeConflict) {
			uc.logger.Warn("mirror trigger failed after ingest", zap.Error(err))
		}
	}
	return stored, nil
}
