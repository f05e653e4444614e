// Package httpapi binds the show, wallet and reservation operations to HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/io-da/query"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/terraskye/cinema-saga/cinema"
	"github.com/terraskye/cinema-saga/projection"
	"github.com/terraskye/cinema-saga/reservation"
	"github.com/terraskye/cinema-saga/wallet"
)

// Server is the HTTP binding layer. It owns no domain logic: every handler
// decodes a request, calls one service operation and maps the outcome to a
// status code.
type Server struct {
	echo    *echo.Echo
	shows   *cinema.Service
	wallets *wallet.Service
	sagas   *reservation.Coordinator
	queries *query.Bus
	logger  logrus.FieldLogger
}

func NewServer(
	shows *cinema.Service,
	wallets *wallet.Service,
	sagas *reservation.Coordinator,
	queries *query.Bus,
	logger logrus.FieldLogger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		shows:   shows,
		wallets: wallets,
		sagas:   sagas,
		queries: queries,
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.POST("/cinema-show/:id", s.createShow)
	s.echo.GET("/cinema-show/:id", s.getShow)
	s.echo.PATCH("/cinema-show/:id/reserve", s.reserveSeat)
	s.echo.PATCH("/cinema-show/:id/confirm", s.confirmReservation)
	s.echo.PATCH("/cinema-show/:id/cancel", s.cancelReservation)
	s.echo.GET("/cinema-show/:id/seat/:number", s.getSeatStatus)

	s.echo.POST("/wallet/:id", s.createWallet)
	s.echo.GET("/wallet/:id", s.getWallet)
	s.echo.PATCH("/wallet/:id/charge", s.chargeWallet)
	s.echo.PATCH("/wallet/:id/deposit", s.depositFunds)
	s.echo.PATCH("/wallet/:id/refund", s.refundWallet)

	s.echo.POST("/seat-reservation/:id", s.startReservation)
	s.echo.GET("/seat-reservation/:id", s.getReservation)
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree, used by tests and by callers that manage
// the listener themselves.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// httpError maps domain errors to status codes. Unknown errors stay 500 so
// transport callers never mistake an infrastructure fault for a rejection.
func httpError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, cinema.ErrShowNotFound),
		errors.Is(err, cinema.ErrSeatNotFound),
		errors.Is(err, cinema.ErrReservationNotFound),
		errors.Is(err, wallet.ErrWalletNotExists),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, projection.ErrUnknownReservation):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, cinema.ErrShowAlreadyExists),
		errors.Is(err, cinema.ErrSeatNotAvailable),
		errors.Is(err, cinema.ErrCancellingConfirmedReservation),
		errors.Is(err, wallet.ErrWalletAlreadyExists),
		errors.Is(err, wallet.ErrChargeRejected),
		errors.Is(err, reservation.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, cinema.ErrTooManySeats),
		errors.Is(err, wallet.ErrDepositLessOrEqualZero):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
