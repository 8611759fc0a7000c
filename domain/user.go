package domain

import "time"

// User represents an authenticated student account.
type User struct {
	ID         string            `json:"id"`
	Email      string            `json:"email,omitempty"`
	Role       string            `json:"role"`
	Status     string            `json:"status"`
	CalendarID string            `json:"calendar_id,omitempty"`
	Timezone   string            `json:"timezone,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

// TargetCalendar returns the user's calendar id, falling back to the
// account's primary calendar when none is configured.
func (u *User) TargetCalendar() string {
	if u == nil || u.CalendarID == "" {
		return "primary"
	}
	return u.CalendarID
}
