package wallet

import "github.com/shopspring/decimal"

// CreateWallet opens a wallet with an initial balance.
type CreateWallet struct {
	WalletID      string          `json:"walletId"`
	InitialAmount decimal.Decimal `json:"initialAmount"`
}

func (c CreateWallet) AggregateID() string { return c.WalletID }

// ChargeWallet subtracts amount if sufficient funds are present, recording
// the charge under expenseId. CommandID deduplicates redeliveries.
type ChargeWallet struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	ExpenseID string          `json:"expenseId"`
	CommandID string          `json:"commandId"`
}

func (c ChargeWallet) AggregateID() string { return c.WalletID }

// DepositFunds adds amount to the balance.
type DepositFunds struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	CommandID string          `json:"commandId"`
}

func (c DepositFunds) AggregateID() string { return c.WalletID }

// Refund restores the charge recorded under ExpenseID. Refunding an unknown
// expense is a no-op for the caller.
type Refund struct {
	WalletID  string `json:"walletId"`
	ExpenseID string `json:"expenseId"`
	CommandID string `json:"commandId"`
}

func (c Refund) AggregateID() string { return c.WalletID }

// commandID is implemented by every wallet command that must be
// deduplicated.
type commandID interface {
	commandID() string
}

func (c ChargeWallet) commandID() string { return c.CommandID }
func (c DepositFunds) commandID() string { return c.CommandID }
func (c Refund) commandID() string       { return c.CommandID }
