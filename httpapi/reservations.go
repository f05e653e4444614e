package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/terraskye/cinema-saga/projection"
)

type startReservationRequest struct {
	ShowID     string          `json:"showId"`
	SeatNumber int             `json:"seatNumber"`
	WalletID   string          `json:"walletId"`
	Price      decimal.Decimal `json:"price"`
}

// startReservation accepts the saga and returns immediately. The caller polls
// the reservation resource for the terminal outcome.
func (s *Server) startReservation(c echo.Context) error {
	var req startReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reservationID := c.Param("id")
	err := s.sagas.Start(c.Request().Context(), reservationID, req.ShowID, req.SeatNumber, req.WalletID, req.Price)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{"reservationId": reservationID})
}

func (s *Server) getReservation(c echo.Context) error {
	reservationID := c.Param("id")

	status, err := s.sagas.GetStatus(c.Request().Context(), reservationID)
	if err != nil {
		return httpError(err)
	}

	view := map[string]any{
		"reservationId": reservationID,
		"status":        status,
	}
	// best effort; the projection may not have observed the reservation yet
	res, err := s.queries.Query(c.Request().Context(), projection.ShowByReservationQuery{ReservationID: reservationID})
	switch {
	case err == nil:
		if showID, ok := res.First().(string); ok {
			view["showId"] = showID
		}
	case !errors.Is(err, projection.ErrUnknownReservation):
		s.logger.WithError(err).Warn("resolving show for reservation")
	}
	return c.JSON(http.StatusOK, view)
}
