package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func seatNumber(raw string) (int, error) {
	return strconv.Atoi(raw)
}

type createWalletRequest struct {
	InitialAmount decimal.Decimal `json:"initialAmount"`
}

func (s *Server) createWallet(c echo.Context) error {
	var req createWalletRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.wallets.Create(c.Request().Context(), c.Param("id"), req.InitialAmount); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (s *Server) getWallet(c echo.Context) error {
	w, err := s.wallets.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"walletId": w.ID, "balance": w.Balance})
}

type chargeRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	ExpenseID string          `json:"expenseId"`
	CommandID string          `json:"commandId"`
}

func (s *Server) chargeWallet(c echo.Context) error {
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := s.wallets.Charge(c.Request().Context(), c.Param("id"), req.Amount, req.ExpenseID, req.CommandID)
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

type depositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	CommandID string          `json:"commandId"`
}

func (s *Server) depositFunds(c echo.Context) error {
	var req depositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.wallets.Deposit(c.Request().Context(), c.Param("id"), req.Amount, req.CommandID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

type refundRequest struct {
	ExpenseID string `json:"expenseId"`
	CommandID string `json:"commandId"`
}

func (s *Server) refundWallet(c echo.Context) error {
	var req refundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.wallets.Refund(c.Request().Context(), c.Param("id"), req.ExpenseID, req.CommandID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}
