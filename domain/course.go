package domain

import (
	"regexp"
	"time"
)

// Course represents an LMS course a user is enrolled in.
type Course struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	LMSCourseID string    `json:"lms_course_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var courseCodePattern = regexp.MustCompile(`\[([^\]]+)\]`)

// Code extracts the bracketed course code from the course name, e.g.
// "[CS2204] Computer Networks" yields "[CS2204]". Falls back to a short
// prefix of the name when no code is present.
func (c *Course) Code() string {
	if c == nil {
		return ""
	}
	if m := courseCodePattern.FindString(c.Name); m != "" {
		return m
	}
	if len(c.Name) > 20 {
		return c.Name[:20]
	}
	return c.Name
}

// Scope returns the identity scope used for mirror event keys. It combines
// the LMS course id with the course name so two courses never collide even
// if the LMS reuses display names.
func (c *Course) Scope() string {
	if c == nil {
		return ""
	}
	return c.LMSCourseID + "_" + c.Name
}
