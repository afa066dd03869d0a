package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graaaaa/rolecall/internal/event"
	"github.com/graaaaa/rolecall/internal/schedule"
)

type stubSource struct {
	events  []event.Event
	pending []schedule.Pending
	err     error
}

func (s *stubSource) OpenEvents(ctx context.Context) ([]event.Event, error) {
	return s.events, s.err
}

func (s *stubSource) Pending() []schedule.Pending {
	return s.pending
}

func TestEventsService_List(t *testing.T) {
	start := time.Date(2030, 1, 2, 20, 0, 0, 0, time.UTC)
	src := &stubSource{
		events: []event.Event{
			{
				Title:     "Raid",
				StartTime: start,
				MessageID: "m1",
				Entries: []event.Entry{
					{ID: "a", Roles: []string{"DPS", "Tank"}},
					{ID: "b", Roles: []string{"DPS"}},
				},
			},
			{Title: "Unscheduled", StartTime: start, MessageID: "m2"},
		},
		pending: []schedule.Pending{{MessageID: "m1", At: start}},
	}
	svc := &EventsService{Source: src}

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2", len(got))
	}

	raid := got[0]
	if raid.Signups != 2 || raid.Roles["DPS"] != 2 || raid.Roles["Tank"] != 1 {
		t.Errorf("raid = %+v", raid)
	}
	if raid.FiresAt == nil || !raid.FiresAt.Equal(start) {
		t.Errorf("FiresAt = %v, want %v", raid.FiresAt, start)
	}
	if got[1].FiresAt != nil {
		t.Errorf("unscheduled event has FiresAt %v", got[1].FiresAt)
	}
	if got[1].Signups != 0 || len(got[1].Roles) != 0 {
		t.Errorf("empty event = %+v", got[1])
	}
}

func TestEventsService_ListError(t *testing.T) {
	svc := &EventsService{Source: &stubSource{err: errors.New("boom")}}
	if _, err := svc.List(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestHealthService_Handle(t *testing.T) {
	src := &stubSource{pending: []schedule.Pending{{MessageID: "m1"}, {MessageID: "m2"}}}

	got, err := HealthService{Version: "1.2.3", Scheduler: src}.Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Version != "1.2.3" || got.Scheduled != 2 {
		t.Errorf("got %+v", got)
	}

	got, _ = HealthService{Version: "dev"}.Handle(context.Background())
	if got.Scheduled != 0 {
		t.Errorf("Scheduled = %d without scheduler", got.Scheduled)
	}
}
