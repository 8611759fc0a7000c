package transport

import (
	"time"

	"github.com/campushub/backend/domain"
)

// DeadlineRow is one scraped deadline as submitted by the LMS scraper.
type DeadlineRow struct {
	LMSCourseID string `json:"lms_course_id"`
	CourseName  string `json:"course_name"`
	StatusText  string `json:"status_text"`
	TimeString  string `json:"time_string"`
	DueAt       string `json:"due_at,omitempty"`
	URL         string `json:"url,omitempty"`
	IsCompleted bool   `json:"is_completed"`
}

// ToDomain converts the wire row into a domain deadline. A due date that
// fails to parse is left unset; such rows are stored but never mirrored.
func (r DeadlineRow) ToDomain() domain.Deadline {
	deadline := domain.Deadline{
		StatusText:  r.StatusText,
		TimeString:  r.TimeString,
		URL:         r.URL,
		IsCompleted: r.IsCompleted,
		Course: &domain.Course{
			LMSCourseID: r.LMSCourseID,
			Name:        r.CourseName,
		},
	}
	if r.DueAt != "" {
		if parsed, err := time.Parse(time.RFC3339, r.DueAt); err == nil {
			deadline.DueAt = &parsed
		}
	}
	return deadline
}

type DeadlineIngestRequest struct {
	Rows []DeadlineRow `json:"rows"`
}

type CompleteRequest struct {
	Completed bool `json:"completed"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
