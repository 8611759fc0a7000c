package repository

import (
	"context"

	"github.com/campushub/backend/domain"
)

type DeadlineFilter struct {
	UserID    string
	Completed *bool
	Limit     int
	Offset    int
}

type DeadlineRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Deadline, error)
	List(ctx context.Context, filter DeadlineFilter) ([]domain.Deadline, error)
	// ListOpen returns uncompleted deadlines with a parseable due date,
	// joined to their courses. This is the input set for both
	// reconciliation passes.
	ListOpen(ctx context.Context, userID string) ([]domain.Deadline, error)
	// Upsert inserts a scraped deadline or refreshes the existing row
	// identified by (user, course, url, time_string).
	Upsert(ctx context.Context, deadline *domain.Deadline) (*domain.Deadline, error)
	SetCompleted(ctx context.Context, id int64, completed bool) error
}
