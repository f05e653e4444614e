package cinema

// CreateShow creates the show and seeds maxSeats seats at the initial price.
type CreateShow struct {
	ShowID   string `json:"showId"`
	Title    string `json:"title"`
	MaxSeats int    `json:"maxSeats"`
}

func (c CreateShow) AggregateID() string { return c.ShowID }

// ReserveSeat places a pending reservation on a seat.
type ReserveSeat struct {
	ShowID        string `json:"showId"`
	WalletID      string `json:"walletId"`
	ReservationID string `json:"reservationId"`
	SeatNumber    int    `json:"seatNumber"`
}

func (c ReserveSeat) AggregateID() string { return c.ShowID }

// ConfirmReservationPayment marks a pending reservation as paid.
type ConfirmReservationPayment struct {
	ShowID        string `json:"showId"`
	ReservationID string `json:"reservationId"`
}

func (c ConfirmReservationPayment) AggregateID() string { return c.ShowID }

// CancelSeatReservation releases a pending reservation.
type CancelSeatReservation struct {
	ShowID        string `json:"showId"`
	ReservationID string `json:"reservationId"`
}

func (c CancelSeatReservation) AggregateID() string { return c.ShowID }
