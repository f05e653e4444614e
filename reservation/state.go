// Package reservation implements the orchestrated seat-reservation saga: one
// owned state machine per reservation that sequences reserve, charge and
// confirm across the show and wallet aggregates, compensating on failure.
package reservation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the coordinator's end-to-end record of a reservation. It tracks
// payment and refund sub-states the show aggregate has no visibility into.
type Status string

const (
	StatusStarted                 Status = "STARTED"
	StatusSeatReserved            Status = "SEAT_RESERVED"
	StatusSeatReservationFailed   Status = "SEAT_RESERVATION_FAILED"
	StatusWalletCharged           Status = "WALLET_CHARGED"
	StatusWalletChargeRejected    Status = "WALLET_CHARGE_REJECTED"
	StatusCompleted               Status = "COMPLETED"
	StatusWalletRefunded          Status = "WALLET_REFUNDED"
	StatusSeatReservationRefunded Status = "SEAT_RESERVATION_REFUNDED"
)

// Terminal reports whether the saga has finished. A terminal saga never
// transitions again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusSeatReservationFailed, StatusSeatReservationRefunded:
		return true
	}
	return false
}

// SeatReservation is the saga state. It is exclusively owned and mutated by
// the coordinator; the aggregates never read or write it.
type SeatReservation struct {
	ReservationID string          `json:"reservationId"`
	ShowID        string          `json:"showId"`
	SeatNumber    int             `json:"seatNumber"`
	WalletID      string          `json:"walletId"`
	Price         decimal.Decimal `json:"price"`
	Status        Status          `json:"status"`
}

// NewSeatReservation builds the initial Started state.
func NewSeatReservation(reservationID, showID string, seatNumber int, walletID string, price decimal.Decimal) SeatReservation {
	return SeatReservation{
		ReservationID: reservationID,
		ShowID:        showID,
		SeatNumber:    seatNumber,
		WalletID:      walletID,
		Price:         price,
		Status:        StatusStarted,
	}
}

func (r SeatReservation) asSeatReserved() SeatReservation {
	r.Status = StatusSeatReserved
	return r
}

func (r SeatReservation) asSeatReservationFailed() SeatReservation {
	r.Status = StatusSeatReservationFailed
	return r
}

func (r SeatReservation) asWalletCharged() SeatReservation {
	r.Status = StatusWalletCharged
	return r
}

func (r SeatReservation) asWalletChargeRejected() SeatReservation {
	r.Status = StatusWalletChargeRejected
	return r
}

func (r SeatReservation) asCompleted() SeatReservation {
	r.Status = StatusCompleted
	return r
}

func (r SeatReservation) asWalletRefunded() SeatReservation {
	r.Status = StatusWalletRefunded
	return r
}

// finishAfterCancel resolves the terminal status once the seat reservation
// has been cancelled. Whether the saga ends Failed or Refunded depends on
// whether money moved: a refunded wallet ends as Refunded, everything else
// ends as Failed.
func (r SeatReservation) finishAfterCancel() (SeatReservation, error) {
	switch r.Status {
	case StatusStarted, StatusSeatReserved, StatusWalletChargeRejected:
		r.Status = StatusSeatReservationFailed
		return r, nil
	case StatusWalletRefunded:
		r.Status = StatusSeatReservationRefunded
		return r, nil
	default:
		return r, fmt.Errorf("cannot finish reservation %q from status %s", r.ReservationID, r.Status)
	}
}
