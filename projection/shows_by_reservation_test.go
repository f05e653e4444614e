package projection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/io-da/query"

	"github.com/terraskye/cinema-saga/cinema"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	busmemory "github.com/terraskye/cinema-saga/eventsourcing/eventbus/memory"
	storememory "github.com/terraskye/cinema-saga/eventsourcing/eventstore/memory"
	"github.com/terraskye/cinema-saga/eventsourcing/fixtures"
)

func TestShowsByReservation_Handler(t *testing.T) {
	p := NewShowsByReservation()
	handler := p.Handler()
	ctx := context.Background()

	err := handler.Handle(ctx, cinema.SeatReserved{
		ShowID:        "s1",
		WalletID:      "w1",
		ReservationID: "r1",
		SeatNumber:    3,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	showID, err := p.Show("r1")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if showID != "s1" {
		t.Errorf("show = %q, want s1", showID)
	}

	if _, err := p.Show("unknown"); !errors.Is(err, ErrUnknownReservation) {
		t.Errorf("expected ErrUnknownReservation, got %v", err)
	}

	// events of other types are skipped, not errors for the bus
	err = handler.Handle(ctx, cinema.SeatReservationPaid{ShowID: "s1", ReservationID: "r1"})
	var skipped *cqrs.ErrSkippedEvent
	if !errors.As(err, &skipped) {
		t.Errorf("expected ErrSkippedEvent, got %v", err)
	}
}

func TestShowsByReservation_ThroughEventBus(t *testing.T) {
	p := NewShowsByReservation()
	bus := busmemory.NewEventBus(16)
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := p.Subscribe(ctx, bus, logger); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	bus.Dispatch(fixtures.NewEnvelope(cinema.SeatReserved{
		ShowID:        "s7",
		WalletID:      "w1",
		ReservationID: "r7",
		SeatNumber:    1,
	}, fixtures.WithStreamID(cinema.StreamID("s7"))))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if showID, err := p.Show("r7"); err == nil {
			if showID != "s7" {
				t.Fatalf("show = %q, want s7", showID)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("projection never observed the reservation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestShowsByReservation_QueryBus(t *testing.T) {
	p := NewShowsByReservation()
	bus := cqrs.NewQueryBus()
	p.RegisterQuery(bus)

	if err := p.Handler().Handle(context.Background(), cinema.SeatReserved{
		ShowID:        "s1",
		ReservationID: "r1",
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	gateway := cqrs.NewQueryGateway[ShowByReservationQuery, string](bus)
	showID, err := gateway.HandleQuery(context.Background(), ShowByReservationQuery{ReservationID: "r1"})
	if err != nil {
		t.Fatalf("HandleQuery: %v", err)
	}
	if showID != "s1" {
		t.Errorf("show = %q, want s1", showID)
	}

	if _, err := gateway.HandleQuery(context.Background(), ShowByReservationQuery{ReservationID: "nope"}); !errors.Is(err, ErrUnknownReservation) {
		t.Errorf("expected ErrUnknownReservation, got %v", err)
	}
}

func TestShowsByReservation_Rebuild(t *testing.T) {
	store := storememory.NewMemoryStore(16)
	ctx := context.Background()

	envelopes := []cqrs.Envelope{
		*fixtures.NewEnvelope(cinema.ShowCreated{ShowID: "s3", Title: "Dune"},
			fixtures.WithStreamID(cinema.StreamID("s3")), fixtures.WithVersion(1)),
		*fixtures.NewEnvelope(cinema.SeatReserved{ShowID: "s3", WalletID: "w1", ReservationID: "r3", SeatNumber: 4},
			fixtures.WithStreamID(cinema.StreamID("s3")), fixtures.WithVersion(2)),
	}
	if _, err := store.Save(ctx, envelopes, cqrs.Any{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	p := NewShowsByReservation()
	if err := p.Rebuild(ctx, store); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	showID, err := p.Show("r3")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if showID != "s3" {
		t.Errorf("show = %q, want s3", showID)
	}
}

func TestShowsByReservation_ExternalQueryBus(t *testing.T) {
	p := NewShowsByReservation()
	provider := cqrs.NewQueryProvider()
	p.RegisterProvider(provider)

	bus := query.NewBus()
	bus.Handlers(provider)
	t.Cleanup(bus.Shutdown)

	if err := p.Handler().Handle(context.Background(), cinema.SeatReserved{
		ShowID:        "s1",
		ReservationID: "r1",
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	res, err := bus.Query(context.Background(), ShowByReservationQuery{ReservationID: "r1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if showID, ok := res.First().(string); !ok || showID != "s1" {
		t.Errorf("show = %v, want s1", res.First())
	}

	if _, err := bus.Query(context.Background(), ShowByReservationQuery{ReservationID: "nope"}); !errors.Is(err, ErrUnknownReservation) {
		t.Errorf("expected ErrUnknownReservation, got %v", err)
	}
}
