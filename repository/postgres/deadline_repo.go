package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

type deadlineRepository struct {
	pool *pgxpool.Pool
}

// NewDeadlineRepository returns a Postgres-backed implementation of DeadlineRepository.
func NewDeadlineRepository(pool *pgxpool.Pool) repository.DeadlineRepository {
	return &deadlineRepository{pool: pool}
}

const deadlineColumns = `
	d.id, d.user_id, d.course_id, d.status_text, d.time_string, d.due_at, d.url,
	d.is_completed, d.created_at, d.updated_at,
	c.id, c.user_id, c.lms_course_id, c.name, c.created_at, c.updated_at
`

func (r *deadlineRepository) GetByID(ctx context.Context, id int64) (*domain.Deadline, error) {
	const query = `
	SELECT ` + deadlineColumns + `
	FROM deadlines d
	JOIN courses c ON d.course_id = c.id
	WHERE d.id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanDeadline(row)
}

func (r *deadlineRepository) List(ctx context.Context, filter repository.DeadlineFilter) ([]domain.Deadline, error) {
	const query = `
	SELECT ` + deadlineColumns + `
	FROM deadlines d
	JOIN courses c ON d.course_id = c.id
	WHERE ($1 = '' OR d.user_id = $1)
	  AND ($2::boolean IS NULL OR d.is_completed = $2)
	ORDER BY d.due_at NULLS LAST, d.id
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Completed, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeadlines(rows)
}

func (r *deadlineRepository) ListOpen(ctx context.Context, userID string) ([]domain.Deadline, error) {
	const query = `
	SELECT ` + deadlineColumns + `
	FROM deadlines d
	JOIN courses c ON d.course_id = c.id
	WHERE d.user_id = $1
	  AND d.is_completed = FALSE
	  AND d.due_at IS NOT NULL
	ORDER BY d.due_at, d.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeadlines(rows)
}

func (r *deadlineRepository) Upsert(ctx context.Context, deadline *domain.Deadline) (*domain.Deadline, error) {
	if deadline == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO deadlines (user_id, course_id, status_text, time_string, due_at, url, is_completed)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, course_id, url, time_string) DO UPDATE
	SET status_text = EXCLUDED.status_text,
		due_at = EXCLUDED.due_at,
		is_completed = EXCLUDED.is_completed,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		deadline.UserID,
		deadline.CourseID,
		deadline.StatusText,
		deadline.TimeString,
		nullTime(deadline.DueAt),
		deadline.URL,
		deadline.IsCompleted,
	).Scan(&deadline.ID, &deadline.CreatedAt, &deadline.UpdatedAt); err != nil {
		return nil, err
	}
	return deadline, nil
}

func (r *deadlineRepository) SetCompleted(ctx context.Context, id int64, completed bool) error {
	const query = `
	UPDATE deadlines
	SET is_completed = $2, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeadlineNotFound
	}
	return nil
}

func collectDeadlines(rows pgx.Rows) ([]domain.Deadline, error) {
	var deadlines []domain.Deadline
	for rows.Next() {
		deadline, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		deadlines = append(deadlines, *deadline)
	}
	return deadlines, rows.Err()
}

func scanDeadline(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Deadline, error) {
	var deadline domain.Deadline
	var course domain.Course

	if err := row.Scan(
		&deadline.ID,
		&deadline.UserID,
		&deadline.CourseID,
		&deadline.StatusText,
		&deadline.TimeString,
		&deadline.DueAt,
		&deadline.URL,
		&deadline.IsCompleted,
		&deadline.CreatedAt,
		&deadline.UpdatedAt,
		&course.ID,
		&course.UserID,
		&course.LMSCourseID,
		&course.Name,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDeadlineNotFound
		}
		return nil, err
	}

	deadline.Course = &course
	return &deadline, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 200
	}
	return limit
}
