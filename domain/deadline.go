package domain

import "time"

// Deadline represents one outstanding obligation scraped from the LMS.
// Rows are never deleted: completion flips IsCompleted, and reconciliation
// treats "no longer open" as the trigger for removing remote events.
type Deadline struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	Course      *Course    `json:"course,omitempty"`
	StatusText  string     `json:"status_text,omitempty"`
	TimeString  string     `json:"time_string"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	URL         string     `json:"url,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOpen reports whether the deadline should be reflected on the calendar.
// Deadlines without a parseable due date never enter reconciliation.
func (d *Deadline) IsOpen() bool {
	return d != nil && !d.IsCompleted && d.DueAt != nil
}

// IsOverdue reports whether the due date has passed at the given instant.
func (d *Deadline) IsOverdue(now time.Time) bool {
	return d != nil && d.DueAt != nil && d.DueAt.Before(now)
}
