package app

import (
	"context"
	"fmt"
	"time"

	"github.com/graaaaa/rolecall/internal/event"
)

// EventsUsecase defines the open events listing use case.
type EventsUsecase interface {
	List(ctx context.Context) ([]EventSummary, error)
}

// EventSource defines the bot operations needed by EventsService.
type EventSource interface {
	PendingSource
	OpenEvents(ctx context.Context) ([]event.Event, error)
}

// EventSummary is one open event as seen by the status API.
type EventSummary struct {
	Title     string         `json:"title"`
	StartTime time.Time      `json:"start_time"`
	MessageID string         `json:"message_id"`
	Signups   int            `json:"signups"`
	Roles     map[string]int `json:"roles"`
	FiresAt   *time.Time     `json:"fires_at,omitempty"`
}

// EventsService implements EventsUsecase.
type EventsService struct {
	Source EventSource
}

// List returns every open event in creation order with per-role signup
// counts. FiresAt is set when the event's start is scheduled.
func (s *EventsService) List(ctx context.Context) ([]EventSummary, error) {
	events, err := s.Source.OpenEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}

	fires := make(map[string]time.Time)
	for _, p := range s.Source.Pending() {
		fires[p.MessageID] = p.At
	}

	out := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		sum := EventSummary{
			Title:     ev.Title,
			StartTime: ev.StartTime,
			MessageID: ev.MessageID,
			Signups:   len(ev.Entries),
			Roles:     make(map[string]int),
		}
		for _, entry := range ev.Entries {
			for _, role := range entry.Roles {
				sum.Roles[role]++
			}
		}
		if at, ok := fires[ev.MessageID]; ok {
			sum.FiresAt = &at
		}
		out = append(out, sum)
	}
	return out, nil
}
