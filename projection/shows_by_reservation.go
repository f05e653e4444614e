// Package projection holds the query-side read models fed by the event bus.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/io-da/query"

	"github.com/terraskye/cinema-saga/cinema"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/logging"
)

// ErrUnknownReservation is returned when no show is known for a reservation.
var ErrUnknownReservation = errors.New("unknown reservation")

// ShowByReservationQuery resolves the show a reservation belongs to.
type ShowByReservationQuery struct {
	ReservationID string
}

func (q ShowByReservationQuery) ID() []byte { return []byte(q.ReservationID) }

// ShowsByReservation indexes reservation ids to their show id. It exists so a
// caller holding only a reservation id can find the aggregate to query,
// without scanning every show stream.
type ShowsByReservation struct {
	mu    sync.RWMutex
	shows map[string]string
}

func NewShowsByReservation() *ShowsByReservation {
	return &ShowsByReservation{shows: make(map[string]string)}
}

func (p *ShowsByReservation) apply(ev cinema.SeatReserved) {
	p.mu.Lock()
	p.shows[ev.ReservationID] = ev.ShowID
	p.mu.Unlock()
}

// Handler returns the event handler feeding this read model.
func (p *ShowsByReservation) Handler() *cqrs.EventGroupProcessor {
	return cqrs.NewEventGroupProcessor(
		cqrs.OnEvent(func(ctx context.Context, ev cinema.SeatReserved) error {
			p.apply(ev)
			return nil
		}),
	)
}

// Rebuild replays the whole event log into the read model. Called on boot,
// before the live subscription takes over; applying an event twice is a
// no-op, so overlap between the replay and the subscription is harmless.
func (p *ShowsByReservation) Rebuild(ctx context.Context, store cqrs.EventStore) error {
	iter, err := store.LoadFromAll(ctx, 0)
	if err != nil {
		return fmt.Errorf("rebuild shows-by-reservation: %w", err)
	}

	fold := cqrs.Hydrate(
		cqrs.NewHydrateHandler(func(ctx context.Context, ev cinema.SeatReserved) {
			p.apply(ev)
		}),
	)
	for iter.Next(ctx) {
		env := iter.Value()
		fold(cqrs.WithEnvelope(ctx, env), env.Event)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rebuild shows-by-reservation: %w", err)
	}
	return nil
}

// Subscribe attaches the read model to the event bus. The subscription lives
// until ctx is cancelled.
func (p *ShowsByReservation) Subscribe(ctx context.Context, bus cqrs.EventBus, logger *slog.Logger) error {
	handler := p.Handler()
	return bus.Subscribe(ctx, "shows-by-reservation",
		cqrs.MatchEvents(handler.StreamFilter()...),
		logging.WithEventLogging(logger, handler),
	)
}

// RegisterQuery exposes the read model on the query bus.
func (p *ShowsByReservation) RegisterQuery(bus *cqrs.QueryBus) {
	cqrs.RegisterQueryHandler(bus, cqrs.NewQueryHandlerFunc(
		func(ctx context.Context, qry ShowByReservationQuery) (string, error) {
			return p.Show(qry.ReservationID)
		}))
}

// RegisterProvider exposes the read model through the external query bus
// adapter, keyed by the query type name.
func (p *ShowsByReservation) RegisterProvider(provider cqrs.QueryProvider) {
	provider.RegisterHandler(cqrs.TypeName(ShowByReservationQuery{}), showByReservationHandler{p: p})
}

type showByReservationHandler struct {
	p *ShowsByReservation
}

func (h showByReservationHandler) HandleQuery(ctx context.Context, qry query.Query) (cqrs.ReadModel, error) {
	q, ok := qry.(ShowByReservationQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", qry)
	}
	return h.p.Show(q.ReservationID)
}

// Show returns the show id a reservation was made against.
func (p *ShowsByReservation) Show(reservationID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	showID, ok := p.shows[reservationID]
	if !ok {
		return "", ErrUnknownReservation
	}
	return showID, nil
}
