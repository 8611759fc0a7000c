package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

// maxCourseTextLength bounds the concatenated document text handed to the
// estimator as context.
const maxCourseTextLength = 45000

// CourseRepo is a Postgres-backed implementation of both CourseRepository
// and CourseTextStore (course rows and their extracted document text live
// in sibling tables).
type CourseRepo struct {
	pool *pgxpool.Pool
}

// NewCourseRepository returns a Postgres-backed course repository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

var (
	_ repository.CourseRepository = (*CourseRepo)(nil)
	_ repository.CourseTextStore  = (*CourseRepo)(nil)
)

func (r *CourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	const query = `
	SELECT id, user_id, lms_course_id, name, created_at, updated_at
	FROM courses
	WHERE id = $1
	`
	var course domain.Course
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.UserID,
		&course.LMSCourseID,
		&course.Name,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepo) UpsertByLMSID(ctx context.Context, course *domain.Course) (*domain.Course, error) {
	if course == nil {
		return nil, domain.ErrInvalidPayload
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO courses (id, user_id, lms_course_id, name)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, lms_course_id) DO UPDATE
	SET name = EXCLUDED.name,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		course.ID,
		course.UserID,
		course.LMSCourseID,
		course.Name,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
		return nil, err
	}
	return course, nil
}

func (r *CourseRepo) ReadCourseText(ctx context.Context, userID, courseID string) (string, error) {
	const query = `
	SELECT name, content
	FROM course_documents
	WHERE user_id = $1 AND course_id = $2
	ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, userID, courseID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var buf []byte
	for rows.Next() {
		var name, content string
		if err := rows.Scan(&name, &content); err != nil {
			return "", err
		}
		buf = append(buf, "\n\n--- Content from "+name+" ---\n\n"...)
		buf = append(buf, content...)
		if len(buf) >= maxCourseTextLength {
			buf = buf[:maxCourseTextLength]
			break
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *CourseRepo) SaveDocument(ctx context.Context, userID, courseID, name, text string) error {
	const query = `
	INSERT INTO course_documents (id, user_id, course_id, name, content)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, course_id, name) DO UPDATE
	SET content = EXCLUDED.content
	`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), userID, courseID, name, text)
	return err
}

func marshalMap(data map[string]string) []byte {
	if len(data) == 0 {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}
