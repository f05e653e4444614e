package cinema

import (
	"github.com/shopspring/decimal"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// ShowCreated seeds a show with its full initial seat list.
type ShowCreated struct {
	ShowID string `json:"showId"`
	Title  string `json:"title"`
	Seats  []Seat `json:"seats"`
}

func (e ShowCreated) AggregateID() string { return e.ShowID }
func (e ShowCreated) EventType() string   { return "ShowCreated" }

// SeatReserved records a seat moving to Reserved for a pending reservation.
type SeatReserved struct {
	ShowID        string          `json:"showId"`
	WalletID      string          `json:"walletId"`
	ReservationID string          `json:"reservationId"`
	SeatNumber    int             `json:"seatNumber"`
	Price         decimal.Decimal `json:"price"`
}

func (e SeatReserved) AggregateID() string { return e.ShowID }
func (e SeatReserved) EventType() string   { return "SeatReserved" }

// SeatReservationPaid confirms a pending reservation; the seat becomes Paid.
type SeatReservationPaid struct {
	ShowID        string `json:"showId"`
	ReservationID string `json:"reservationId"`
	SeatNumber    int    `json:"seatNumber"`
}

func (e SeatReservationPaid) AggregateID() string { return e.ShowID }
func (e SeatReservationPaid) EventType() string   { return "SeatReservationPaid" }

// SeatReservationCancelled releases a pending reservation; the seat becomes
// Available again.
type SeatReservationCancelled struct {
	ShowID        string `json:"showId"`
	ReservationID string `json:"reservationId"`
	SeatNumber    int    `json:"seatNumber"`
}

func (e SeatReservationCancelled) AggregateID() string { return e.ShowID }
func (e SeatReservationCancelled) EventType() string   { return "SeatReservationCancelled" }

// CancelledReservationConfirmed records a payment confirmation that arrived
// after the reservation was already cancelled. The seat state does not change;
// the event exists so the late charge can be reconciled downstream.
type CancelledReservationConfirmed struct {
	ShowID        string `json:"showId"`
	ReservationID string `json:"reservationId"`
	SeatNumber    int    `json:"seatNumber"`
}

func (e CancelledReservationConfirmed) AggregateID() string { return e.ShowID }
func (e CancelledReservationConfirmed) EventType() string   { return "CancelledReservationConfirmed" }

func init() {
	cqrs.RegisterEventByType(func() cqrs.Event { return &ShowCreated{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &SeatReserved{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &SeatReservationPaid{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &SeatReservationCancelled{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &CancelledReservationConfirmed{} })
}
