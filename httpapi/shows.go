package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/terraskye/cinema-saga/cinema"
)

type createShowRequest struct {
	Title    string `json:"title"`
	MaxSeats int    `json:"maxSeats"`
}

func (s *Server) createShow(c echo.Context) error {
	var req createShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.shows.Create(c.Request().Context(), c.Param("id"), req.Title, req.MaxSeats); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

type seatView struct {
	Number int               `json:"number"`
	Status cinema.SeatStatus `json:"status"`
	Price  decimal.Decimal   `json:"price"`
}

type showView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Seats []seatView `json:"seats"`
}

func (s *Server) getShow(c echo.Context) error {
	show, err := s.shows.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	view := showView{ID: show.ID, Title: show.Title, Seats: make([]seatView, 0, len(show.Seats))}
	for number := 0; number < len(show.Seats); number++ {
		seat, ok := show.Seats[number]
		if !ok {
			continue
		}
		view.Seats = append(view.Seats, seatView{Number: seat.Number, Status: seat.Status, Price: seat.Price})
	}
	return c.JSON(http.StatusOK, view)
}

type reserveSeatRequest struct {
	WalletID      string `json:"walletId"`
	ReservationID string `json:"reservationId"`
	SeatNumber    int    `json:"seatNumber"`
}

func (s *Server) reserveSeat(c echo.Context) error {
	var req reserveSeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := s.shows.Reserve(c.Request().Context(), c.Param("id"), req.WalletID, req.ReservationID, req.SeatNumber)
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

type reservationRequest struct {
	ReservationID string `json:"reservationId"`
}

func (s *Server) confirmReservation(c echo.Context) error {
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.shows.ConfirmPayment(c.Request().Context(), c.Param("id"), req.ReservationID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) cancelReservation(c echo.Context) error {
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.shows.CancelReservation(c.Request().Context(), c.Param("id"), req.ReservationID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) getSeatStatus(c echo.Context) error {
	number, err := seatNumber(c.Param("number"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid seat number")
	}

	status, err := s.shows.SeatStatus(c.Request().Context(), c.Param("id"), number)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"number": number, "status": status})
}
