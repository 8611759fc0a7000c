package studyplan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

const (
	dayStartHour = 8
	dayEndHour   = 22
)

// blockSizes are tried largest first so each step records the biggest block
// that fits at that start time.
var blockSizes = [...]int{3, 2, 1}

// SlotFinder discovers free 1/2/3-hour work blocks in a calendar. Candidate
// slots advance by one hour regardless of the block size found, so raw
// slots may overlap in time; consumers must track which concrete windows
// they claim.
type SlotFinder struct {
	events   repository.EventStore
	logger   *zap.Logger
	timezone *time.Location
	now      func() time.Time
}

func NewSlotFinder(events repository.EventStore, timezone *time.Location, logger *zap.Logger) *SlotFinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timezone == nil {
		timezone = time.UTC
	}
	return &SlotFinder{
		events:   events,
		logger:   logger,
		timezone: timezone,
		now:      time.Now,
	}
}

// WithClock overrides the finder clock. Used by tests.
func (f *SlotFinder) WithClock(now func() time.Time) *SlotFinder {
	f.now = now
	return f
}

// FindFreeSlots scans each day in [today, today+days) between 08:00 and
// 22:00 local time and returns candidate slots in chronological order. A
// day whose listing fails is skipped rather than failing the whole scan.
func (f *SlotFinder) FindFreeSlots(ctx context.Context, calendarID string, days int) []domain.FreeSlot {
	now := f.now().In(f.timezone)
	var slots []domain.FreeSlot

	for d := 0; d < days; d++ {
		day := now.AddDate(0, 0, d)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), dayStartHour, 0, 0, 0, f.timezone)
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), dayEndHour, 0, 0, 0, f.timezone)

		// The current day starts at the next hour boundary at least 30
		// minutes out; work cannot be scheduled in the past.
		if dayStart.Before(now) {
			next := now.Add(30 * time.Minute)
			dayStart = time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), 0, 0, 0, f.timezone)
		}
		if !dayStart.Before(dayEnd) {
			continue
		}

		events, err := f.events.ListEvents(ctx, calendarID, repository.EventWindow{
			Min: dayStart,
			Max: dayEnd,
		})
		if err != nil {
			f.logger.Warn("event listing failed, skipping day",
				zap.String("calendar_id", calendarID),
				zap.Time("day", dayStart),
				zap.Error(err))
			continue
		}

		busy := busyIntervals(events, dayStart, dayEnd, f.timezone)
		slots = append(slots, scanDay(dayStart, dayEnd, busy)...)
	}

	f.logger.Debug("free slot scan complete",
		zap.String("calendar_id", calendarID),
		zap.Int("days", days),
		zap.Int("slots", len(slots)))
	return slots
}

type interval struct {
	start time.Time
	end   time.Time
}

// busyIntervals normalizes listed events to busy intervals. All-day events
// block the entire scanned day; timed events block their exact range.
func busyIntervals(events []domain.CalendarEvent, dayStart, dayEnd time.Time, tz *time.Location) []interval {
	busy := make([]interval, 0, len(events))
	for _, event := range events {
		if event.AllDay {
			fullStart := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 0, 0, 0, 0, tz)
			busy = append(busy, interval{start: fullStart, end: fullStart.Add(24 * time.Hour)})
			continue
		}
		if event.End.After(dayStart) && event.Start.Before(dayEnd) {
			busy = append(busy, interval{start: event.Start, end: event.End})
		}
	}
	return busy
}

// scanDay walks the window in one-hour steps recording the largest block
// that fits at each step. With zero busy intervals every step yields a
// three-hour slot (until the window end cuts the block size down).
func scanDay(dayStart, dayEnd time.Time, busy []interval) []domain.FreeSlot {
	var slots []domain.FreeSlot
	for current := dayStart; current.Before(dayEnd); current = current.Add(time.Hour) {
		for _, blockHours := range blockSizes {
			end := current.Add(time.Duration(blockHours) * time.Hour)
			if end.After(dayEnd) {
				continue
			}
			if isFree(current, end, busy) {
				slots = append(slots, domain.FreeSlot{
					Start:         current,
					End:           end,
					MaxBlockHours: blockHours,
				})
				break
			}
		}
	}
	return slots
}

// isFree applies the strict half-open overlap test: [start,end) is free iff
// it does not intersect any busy interval. Touching boundaries are free.
func isFree(start, end time.Time, busy []interval) bool {
	for _, b := range busy {
		if domain.Overlaps(start, end, b.start, b.end) {
			return false
		}
	}
	return true
}
