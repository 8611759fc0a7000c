package domain

import "time"

// CalendarEvent is the provider-independent view of a remote calendar event.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day,omitempty"`
}

// EventBody is the desired state written to the remote calendar for one
// deadline-backed or study-block-backed event.
type EventBody struct {
	Summary         string    `json:"summary"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ColorID         string    `json:"color_id,omitempty"`
	ReminderMinutes []int     `json:"reminder_minutes,omitempty"`
}

// FreeSlot is a candidate work window discovered in the remote calendar.
// MaxBlockHours is the largest block (1, 2 or 3 hours) that fits at Start
// without overlapping any busy interval. Slots are recomputed every
// planning pass and never persisted.
type FreeSlot struct {
	Start         time.Time
	End           time.Time
	MaxBlockHours int
}

// Key identifies the concrete time window so downstream consumers can track
// which windows have already been claimed within a pass.
func (s FreeSlot) Key() string {
	return s.Start.Format(time.RFC3339) + "/" + s.End.Format(time.RFC3339)
}

// Overlaps reports whether two half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
