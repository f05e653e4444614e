package cinema

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/logging"
	cqrsotel "github.com/terraskye/cinema-saga/eventsourcing/otel"
)

const streamPrefix = "cinema-show-"

// StreamID returns the event stream name for a show id.
func StreamID(showID string) string { return streamPrefix + showID }

func streamNamer(ctx context.Context, cmd cqrs.Command) string {
	return StreamID(cmd.AggregateID())
}

// Service exposes the show aggregate's operations. Commands are dispatched
// through the sharded command bus so that commands against the same show are
// strictly serialized; reads fold the stream directly.
type Service struct {
	store cqrs.EventStore
	bus   *cqrs.CommandBus
}

// NewService registers the show command handlers on the bus and returns the
// service.
func NewService(store cqrs.EventStore, bus *cqrs.CommandBus, logger logrus.FieldLogger) *Service {
	s := &Service{store: store, bus: bus}

	retry := func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 3)
	}

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Show{}, evolve, decideCreate,
			cqrs.WithRevision(cqrs.NoStream{}),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Show{}, evolve, decideReserve,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Show{}, evolve, decideConfirm,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Show{}, evolve, decideCancel,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	return s
}

// Create creates a show with maxSeats seats at the initial price.
func (s *Service) Create(ctx context.Context, showID, title string, maxSeats int) error {
	_, err := s.bus.Dispatch(ctx, CreateShow{ShowID: showID, Title: title, MaxSeats: maxSeats})
	if errors.Is(err, cqrs.ErrStreamExists) {
		return ErrShowAlreadyExists
	}
	return err
}

// Reserve places a pending reservation. A duplicated reservation id is
// reported as success: the effect was already applied by an earlier delivery.
func (s *Service) Reserve(ctx context.Context, showID, walletID, reservationID string, seatNumber int) error {
	_, err := s.bus.Dispatch(ctx, ReserveSeat{
		ShowID:        showID,
		WalletID:      walletID,
		ReservationID: reservationID,
		SeatNumber:    seatNumber,
	})
	if errors.Is(err, ErrDuplicatedCommand) {
		return nil
	}
	return err
}

// ConfirmPayment confirms a pending reservation as paid.
func (s *Service) ConfirmPayment(ctx context.Context, showID, reservationID string) error {
	_, err := s.bus.Dispatch(ctx, ConfirmReservationPayment{ShowID: showID, ReservationID: reservationID})
	if errors.Is(err, ErrDuplicatedCommand) {
		return nil
	}
	return err
}

// CancelReservation releases a pending reservation. Cancelling an
// already-cancelled, unknown, or confirmed reservation is reported as
// success so that compensation can be retried without new failure modes.
func (s *Service) CancelReservation(ctx context.Context, showID, reservationID string) error {
	_, err := s.bus.Dispatch(ctx, CancelSeatReservation{ShowID: showID, ReservationID: reservationID})
	switch {
	case errors.Is(err, ErrDuplicatedCommand),
		errors.Is(err, ErrCancellingConfirmedReservation),
		errors.Is(err, ErrReservationNotFound):
		return nil
	}
	return err
}

// Get folds the show's stream into its current state.
func (s *Service) Get(ctx context.Context, showID string) (Show, error) {
	iter, err := s.store.LoadStream(ctx, StreamID(showID))
	if errors.Is(err, cqrs.ErrStreamNotFound) {
		return Show{}, ErrShowNotFound
	}
	if err != nil {
		return Show{}, err
	}

	var state Show
	for iter.Next(ctx) {
		state = evolve(state, iter.Value())
	}
	if err := iter.Err(); err != nil {
		return Show{}, err
	}
	if !state.created() {
		return Show{}, ErrShowNotFound
	}
	return state, nil
}

// SeatStatus returns the current status of one seat.
func (s *Service) SeatStatus(ctx context.Context, showID string, seatNumber int) (SeatStatus, error) {
	show, err := s.Get(ctx, showID)
	if err != nil {
		return "", err
	}
	seat, ok := show.Seats[seatNumber]
	if !ok {
		return "", ErrSeatNotFound
	}
	return seat.Status, nil
}
