// Package cinema implements the event-sourced show aggregate: seat inventory
// and the reservation lifecycle per show. State is only ever derived by
// folding the show's own events.
package cinema

import (
	"fmt"

	"github.com/shopspring/decimal"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// MaxSeats caps the seat count of a single show.
const MaxSeats = 100

// InitialPrice is the fixed per-seat price used when seeding a show.
var InitialPrice = decimal.NewFromInt(100)

// SeatStatus is the lifecycle state of one seat.
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
	SeatStatusPaid      SeatStatus = "PAID"
)

// Seat is one numbered seat of a show.
type Seat struct {
	Number int             `json:"number"`
	Status SeatStatus      `json:"status"`
	Price  decimal.Decimal `json:"price"`
}

// Available reports whether the seat can be reserved.
func (s Seat) Available() bool { return s.Status == SeatStatusAvailable }

// ReservationStatus is the aggregate's local record of how a reservation ended.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// FinishedReservation records the terminal outcome of one reservation.
type FinishedReservation struct {
	ReservationID string            `json:"reservationId"`
	SeatNumber    int               `json:"seatNumber"`
	Status        ReservationStatus `json:"status"`
}

// Show is the aggregate state. A reservation id is a key of at most one of
// PendingReservations and FinishedReservations, and once finished it never
// re-enters pending.
type Show struct {
	ID                   string
	Title                string
	Seats                map[int]Seat
	PendingReservations  map[string]int
	FinishedReservations map[string]FinishedReservation
}

func (s Show) created() bool { return s.ID != "" }

func (s Show) isDuplicate(reservationID string) bool {
	if _, ok := s.PendingReservations[reservationID]; ok {
		return true
	}
	_, ok := s.FinishedReservations[reservationID]
	return ok
}

// decideCreate seeds maxSeats seats numbered 0..maxSeats-1 at the initial
// price.
func decideCreate(s Show, cmd CreateShow) ([]cqrs.Event, error) {
	if s.created() {
		return nil, ErrShowAlreadyExists
	}
	if cmd.MaxSeats > MaxSeats || cmd.MaxSeats <= 0 {
		return nil, ErrTooManySeats
	}

	seats := make([]Seat, cmd.MaxSeats)
	for i := range seats {
		seats[i] = Seat{Number: i, Status: SeatStatusAvailable, Price: InitialPrice}
	}
	return []cqrs.Event{ShowCreated{ShowID: cmd.ShowID, Title: cmd.Title, Seats: seats}}, nil
}

func decideReserve(s Show, cmd ReserveSeat) ([]cqrs.Event, error) {
	if !s.created() {
		return nil, ErrShowNotFound
	}
	if s.isDuplicate(cmd.ReservationID) {
		return nil, ErrDuplicatedCommand
	}

	seat, ok := s.Seats[cmd.SeatNumber]
	if !ok {
		return nil, ErrSeatNotFound
	}
	if !seat.Available() {
		return nil, ErrSeatNotAvailable
	}

	return []cqrs.Event{SeatReserved{
		ShowID:        s.ID,
		WalletID:      cmd.WalletID,
		ReservationID: cmd.ReservationID,
		SeatNumber:    cmd.SeatNumber,
		Price:         seat.Price,
	}}, nil
}

// decideConfirm accepts a late confirmation of an already-cancelled
// reservation as CancelledReservationConfirmed instead of rejecting it: the
// money behind the confirmation still has to be reconciled downstream.
func decideConfirm(s Show, cmd ConfirmReservationPayment) ([]cqrs.Event, error) {
	if !s.created() {
		return nil, ErrShowNotFound
	}

	if seatNumber, ok := s.PendingReservations[cmd.ReservationID]; ok {
		if _, ok := s.Seats[seatNumber]; !ok {
			return nil, ErrSeatNotFound
		}
		return []cqrs.Event{SeatReservationPaid{
			ShowID:        s.ID,
			ReservationID: cmd.ReservationID,
			SeatNumber:    seatNumber,
		}}, nil
	}

	if finished, ok := s.FinishedReservations[cmd.ReservationID]; ok {
		switch finished.Status {
		case ReservationConfirmed:
			return nil, ErrDuplicatedCommand
		case ReservationCancelled:
			return []cqrs.Event{CancelledReservationConfirmed{
				ShowID:        s.ID,
				ReservationID: cmd.ReservationID,
				SeatNumber:    finished.SeatNumber,
			}}, nil
		}
	}

	return nil, ErrReservationNotFound
}

func decideCancel(s Show, cmd CancelSeatReservation) ([]cqrs.Event, error) {
	if !s.created() {
		return nil, ErrShowNotFound
	}

	if seatNumber, ok := s.PendingReservations[cmd.ReservationID]; ok {
		if _, ok := s.Seats[seatNumber]; !ok {
			return nil, ErrSeatNotFound
		}
		return []cqrs.Event{SeatReservationCancelled{
			ShowID:        s.ID,
			ReservationID: cmd.ReservationID,
			SeatNumber:    seatNumber,
		}}, nil
	}

	if finished, ok := s.FinishedReservations[cmd.ReservationID]; ok {
		switch finished.Status {
		case ReservationCancelled:
			return nil, ErrDuplicatedCommand
		case ReservationConfirmed:
			return nil, ErrCancellingConfirmedReservation
		}
	}

	return nil, ErrReservationNotFound
}

// evolve folds one envelope into the show state. Folding is total and
// deterministic; replaying the same events from the empty state always
// reproduces the same show.
func evolve(s Show, env *cqrs.Envelope) Show {
	switch ev := env.Event.(type) {
	case ShowCreated:
		seats := make(map[int]Seat, len(ev.Seats))
		for _, seat := range ev.Seats {
			seats[seat.Number] = seat
		}
		return Show{
			ID:                   ev.ShowID,
			Title:                ev.Title,
			Seats:                seats,
			PendingReservations:  make(map[string]int),
			FinishedReservations: make(map[string]FinishedReservation),
		}

	case SeatReserved:
		seat := s.seatOrPanic(ev.SeatNumber)
		seat.Status = SeatStatusReserved
		s.Seats[ev.SeatNumber] = seat
		s.PendingReservations[ev.ReservationID] = ev.SeatNumber
		return s

	case SeatReservationPaid:
		seat := s.seatOrPanic(ev.SeatNumber)
		seat.Status = SeatStatusPaid
		s.Seats[ev.SeatNumber] = seat
		delete(s.PendingReservations, ev.ReservationID)
		s.FinishedReservations[ev.ReservationID] = FinishedReservation{
			ReservationID: ev.ReservationID,
			SeatNumber:    ev.SeatNumber,
			Status:        ReservationConfirmed,
		}
		return s

	case SeatReservationCancelled:
		seat := s.seatOrPanic(ev.SeatNumber)
		seat.Status = SeatStatusAvailable
		s.Seats[ev.SeatNumber] = seat
		delete(s.PendingReservations, ev.ReservationID)
		s.FinishedReservations[ev.ReservationID] = FinishedReservation{
			ReservationID: ev.ReservationID,
			SeatNumber:    ev.SeatNumber,
			Status:        ReservationCancelled,
		}
		return s

	case CancelledReservationConfirmed:
		// State already reflects the cancellation.
		return s

	default:
		return s
	}
}

// seatOrPanic loads a seat during folding. A missing seat means the event log
// itself is corrupt, which is not a recoverable condition.
func (s Show) seatOrPanic(seatNumber int) Seat {
	seat, ok := s.Seats[seatNumber]
	if !ok {
		panic(fmt.Sprintf("seat not found %d", seatNumber))
	}
	return seat
}
