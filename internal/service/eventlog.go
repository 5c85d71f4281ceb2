package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visiverse/internal/models"
	"visiverse/internal/repository"
)

var eventTypes = map[string]struct{}{
	models.EventScan:      {},
	models.EventImport:    {},
	models.EventThumbnail: {},
	models.EventError:     {},
}

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

// canonical returns the filter with both bounds in UTC and the type upper-cased.
// Zero bounds stay zero.
func (f LogFilter) canonical() (LogFilter, error) {
	out := LogFilter{From: f.From, To: f.To, Type: strings.ToUpper(strings.TrimSpace(f.Type))}
	if !out.From.IsZero() {
		out.From = out.From.UTC()
	}
	if !out.To.IsZero() {
		out.To = out.To.UTC()
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.To.Before(out.From) {
		return LogFilter{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter,
			out.From.Format(time.RFC3339), out.To.Format(time.RFC3339))
	}
	if out.Type != "" {
		if _, ok := eventTypes[out.Type]; !ok {
			return LogFilter{}, fmt.Errorf("%w: unknown event type %q", ErrInvalidFilter, out.Type)
		}
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.LibraryEvent, error) {
	q, err := f.canonical()
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, q.From, q.To, q.Type)
}
