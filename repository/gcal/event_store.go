// Package gcal implements the remote event store against the Google
// Calendar API. The Go client has no multi-call HTTP batching, so batch
// operations execute item by item with isolated failures and shared retry
// handling, which preserves the contract that one failed event never aborts
// its siblings.
package gcal

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/repository"
)

const (
	maxAttempts = 4
	baseBackoff = time.Second
	maxBackoff  = 8 * time.Second
	callTimeout = 30 * time.Second
)

type EventStore struct {
	service  *calendar.Service
	timezone string
	logger   *zap.Logger
}

// NewEventStore wraps an authenticated calendar service. The timezone is
// attached to every event body written to the remote calendar.
func NewEventStore(service *calendar.Service, timezone string, logger *zap.Logger) *EventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timezone == "" {
		timezone = "UTC"
	}
	return &EventStore{service: service, timezone: timezone, logger: logger}
}

var _ repository.EventStore = (*EventStore)(nil)

func (s *EventStore) ListEvents(ctx context.Context, calendarID string, window repository.EventWindow) ([]domain.CalendarEvent, error) {
	var listed *calendar.Events
	err := s.withRetry(ctx, func(callCtx context.Context) error {
		call := s.service.Events.List(calendarID).
			Context(callCtx).
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(window.Min.Format(time.RFC3339)).
			TimeMax(window.Max.Format(time.RFC3339))
		if window.Query != "" {
			call = call.Q(window.Query)
		}
		result, err := call.Do()
		if err != nil {
			return err
		}
		listed = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(listed.Items))
	for _, item := range listed.Items {
		event, ok := toDomainEvent(item)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *EventStore) BatchUpsert(ctx context.Context, calendarID string, items []repository.EventUpsert) (map[string]repository.UpsertResult, error) {
	results := make(map[string]repository.UpsertResult, len(items))
	for _, item := range items {
		body := s.toAPIEvent(item.Body)

		var created *calendar.Event
		err := s.withRetry(ctx, func(callCtx context.Context) error {
			var callErr error
			if item.EventID != "" {
				created, callErr = s.service.Events.Update(calendarID, item.EventID, body).Context(callCtx).Do()
			} else {
				created, callErr = s.service.Events.Insert(calendarID, body).Context(callCtx).Do()
			}
			return callErr
		})
		if err != nil {
			if isBatchFatal(err) {
				return results, domain.WrapError(domain.ErrCodeUnauthorized, "calendar batch rejected", err)
			}
			s.logger.Warn("event upsert failed",
				zap.String("key", item.Key),
				zap.String("event_id", item.EventID),
				zap.Error(err))
			results[item.Key] = repository.UpsertResult{Err: err}
			continue
		}
		results[item.Key] = repository.UpsertResult{EventID: created.Id}
	}
	return results, nil
}

func (s *EventStore) BatchDelete(ctx context.Context, calendarID string, eventIDs []string) (map[string]error, error) {
	results := make(map[string]error, len(eventIDs))
	for _, id := range eventIDs {
		err := s.withRetry(ctx, func(callCtx context.Context) error {
			return s.service.Events.Delete(calendarID, id).Context(callCtx).Do()
		})
		if err != nil {
			// A 404 or 410 means the event is already gone, which is the
			// state the delete was after.
			if isGone(err) {
				results[id] = nil
				continue
			}
			if isBatchFatal(err) {
				return results, domain.WrapError(domain.ErrCodeUnauthorized, "calendar batch rejected", err)
			}
			s.logger.Warn("event delete failed", zap.String("event_id", id), zap.Error(err))
		}
		results[id] = err
	}
	return results, nil
}

// withRetry runs fn with a bounded per-call timeout, retrying transient
// failures with exponential backoff. Permanent errors return immediately.
func (s *EventStore) withRetry(ctx context.Context, fn func(context.Context) error) error {
	backoff := baseBackoff
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err = fn(callCtx)
		cancel()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return err
}

func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503:
			return true
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isBatchFatal(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 401
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 410)
}

func (s *EventStore) toAPIEvent(body domain.EventBody) *calendar.Event {
	event := &calendar.Event{
		Summary:     body.Summary,
		Description: body.Description,
		Start: &calendar.EventDateTime{
			DateTime: body.Start.Format(time.RFC3339),
			TimeZone: s.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: body.End.Format(time.RFC3339),
			TimeZone: s.timezone,
		},
		ColorId: body.ColorID,
	}
	if len(body.ReminderMinutes) > 0 {
		overrides := make([]*calendar.EventReminder, 0, len(body.ReminderMinutes))
		for _, minutes := range body.ReminderMinutes {
			overrides = append(overrides, &calendar.EventReminder{
				Method:  "popup",
				Minutes: int64(minutes),
			})
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return event
}

func toDomainEvent(item *calendar.Event) (domain.CalendarEvent, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return domain.CalendarEvent{}, false
	}

	event := domain.CalendarEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}

	switch {
	case item.Start.DateTime != "":
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		event.Start = start
		event.End = end
	case item.Start.Date != "":
		start, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		endDate := item.End.Date
		if endDate == "" {
			endDate = item.Start.Date
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		event.Start = start
		event.End = end
		event.AllDay = true
	default:
		return domain.CalendarEvent{}, false
	}

	return event, true
}
