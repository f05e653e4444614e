package cinema

import "errors"

var (
	// ErrShowAlreadyExists rejects a second CreateShow against the same id.
	ErrShowAlreadyExists = errors.New("show already exists")

	// ErrShowNotFound is returned for any command or read against a show
	// that was never created.
	ErrShowNotFound = errors.New("show not found")

	// ErrTooManySeats rejects a CreateShow exceeding the seat limit.
	ErrTooManySeats = errors.New("too many seats")

	// ErrSeatNotFound is returned when the seat number is outside the show.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatNotAvailable rejects reserving a seat that is not Available.
	ErrSeatNotAvailable = errors.New("seat not available")

	// ErrDuplicatedCommand rejects a reservation id that is already pending
	// or finished. Callers treat it as a successful no-op.
	ErrDuplicatedCommand = errors.New("duplicated command")

	// ErrReservationNotFound is returned when the reservation id is neither
	// pending nor finished.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrCancellingConfirmedReservation rejects cancelling a reservation
	// that was already confirmed as paid.
	ErrCancellingConfirmedReservation = errors.New("cancelling confirmed reservation")
)
