package eventsourcing

import (
	"context"
	"testing"
)

type screeningScheduled struct {
	ShowID string
}

func (e screeningScheduled) AggregateID() string { return e.ShowID }
func (e screeningScheduled) EventType() string   { return "ScreeningScheduled" }

type screeningCancelled struct {
	ShowID string
}

func (e screeningCancelled) AggregateID() string { return e.ShowID }
func (e screeningCancelled) EventType() string   { return "ScreeningCancelled" }

func TestHydrate_RoutesByEventType(t *testing.T) {
	var scheduled, cancelled []string

	fold := Hydrate(
		NewHydrateHandler(func(ctx context.Context, ev screeningScheduled) {
			scheduled = append(scheduled, ev.ShowID)
		}),
		NewHydrateHandler(func(ctx context.Context, ev screeningCancelled) {
			cancelled = append(cancelled, ev.ShowID)
		}),
	)

	ctx := context.Background()
	fold(ctx, screeningScheduled{ShowID: "s1"})
	fold(ctx, screeningCancelled{ShowID: "s1"})
	fold(ctx, screeningScheduled{ShowID: "s2"})

	if len(scheduled) != 2 || scheduled[0] != "s1" || scheduled[1] != "s2" {
		t.Errorf("scheduled = %v", scheduled)
	}
	if len(cancelled) != 1 || cancelled[0] != "s1" {
		t.Errorf("cancelled = %v", cancelled)
	}
}

func TestHydrate_IgnoresUnhandledEvents(t *testing.T) {
	var applied int
	fold := Hydrate(
		NewHydrateHandler(func(ctx context.Context, ev screeningScheduled) {
			applied++
		}),
	)

	fold(context.Background(), screeningCancelled{ShowID: "s1"})
	if applied != 0 {
		t.Errorf("applied = %d, want 0", applied)
	}
}
