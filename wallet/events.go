package wallet

import (
	"github.com/shopspring/decimal"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// WalletCreated sets the wallet id and opening balance.
type WalletCreated struct {
	WalletID      string          `json:"walletId"`
	InitialAmount decimal.Decimal `json:"initialAmount"`
}

func (e WalletCreated) AggregateID() string { return e.WalletID }
func (e WalletCreated) EventType() string   { return "WalletCreated" }

// WalletCharged subtracts the amount and records the expense so a later
// refund can restore it.
type WalletCharged struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	ExpenseID string          `json:"expenseId"`
	CommandID string          `json:"commandId"`
}

func (e WalletCharged) AggregateID() string { return e.WalletID }
func (e WalletCharged) EventType() string   { return "WalletCharged" }

// WalletChargeRejected records an insufficient-funds rejection. The balance
// is unchanged but the command id is still recorded, so rejections are
// deduplicated like any other charge.
type WalletChargeRejected struct {
	WalletID  string `json:"walletId"`
	ExpenseID string `json:"expenseId"`
	CommandID string `json:"commandId"`
}

func (e WalletChargeRejected) AggregateID() string { return e.WalletID }
func (e WalletChargeRejected) EventType() string   { return "WalletChargeRejected" }

// FundsDeposited adds the amount to the balance.
type FundsDeposited struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	CommandID string          `json:"commandId"`
}

func (e FundsDeposited) AggregateID() string { return e.WalletID }
func (e FundsDeposited) EventType() string   { return "FundsDeposited" }

// WalletRefunded restores a previously charged expense.
type WalletRefunded struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	ExpenseID string          `json:"expenseId"`
	CommandID string          `json:"commandId"`
}

func (e WalletRefunded) AggregateID() string { return e.WalletID }
func (e WalletRefunded) EventType() string   { return "WalletRefunded" }

func init() {
	cqrs.RegisterEventByType(func() cqrs.Event { return &WalletCreated{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &WalletCharged{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &WalletChargeRejected{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &FundsDeposited{} })
	cqrs.RegisterEventByType(func() cqrs.Event { return &WalletRefunded{} })
}
