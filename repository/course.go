package repository

import (
	"context"

	"github.com/campushub/backend/domain"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	// UpsertByLMSID inserts or refreshes the course identified by
	// (user, lms_course_id).
	UpsertByLMSID(ctx context.Context, course *domain.Course) (*domain.Course, error)
}

// CourseTextStore exposes the extracted course document text used as
// estimator context.
type CourseTextStore interface {
	// ReadCourseText returns the concatenated extracted text for a course,
	// truncated to a bounded length. An empty string is a valid result.
	ReadCourseText(ctx context.Context, userID, courseID string) (string, error)
	SaveDocument(ctx context.Context, userID, courseID, name, text string) error
}
