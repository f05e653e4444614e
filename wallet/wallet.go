// Package wallet implements the event-sourced wallet aggregate: a balance
// guarded by per-command deduplication, so at-least-once delivery never
// double-charges or double-refunds.
package wallet

import (
	"github.com/shopspring/decimal"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// Wallet is the aggregate state. CommandIDs holds every processed command id;
// Expenses holds charges that have not been refunded yet, keyed by expense id.
type Wallet struct {
	ID         string
	Balance    decimal.Decimal
	CommandIDs map[string]struct{}
	Expenses   map[string]decimal.Decimal
}

func (w Wallet) created() bool { return w.ID != "" }

func (w Wallet) processed(cmd commandID) bool {
	_, ok := w.CommandIDs[cmd.commandID()]
	return ok
}

func decideCreate(w Wallet, cmd CreateWallet) ([]cqrs.Event, error) {
	if w.created() {
		return nil, ErrWalletAlreadyExists
	}
	return []cqrs.Event{WalletCreated{WalletID: cmd.WalletID, InitialAmount: cmd.InitialAmount}}, nil
}

// decideCharge evaluates the balance against the state immediately preceding
// the event. Insufficient funds yields a rejection event, not an error: the
// command is still processed and deduplicated, but leaves the balance
// unchanged.
func decideCharge(w Wallet, cmd ChargeWallet) ([]cqrs.Event, error) {
	if w.processed(cmd) {
		return nil, ErrDuplicatedCommand
	}
	if !w.created() {
		return nil, ErrWalletNotExists
	}

	if w.Balance.LessThan(cmd.Amount) {
		return []cqrs.Event{WalletChargeRejected{
			WalletID:  w.ID,
			ExpenseID: cmd.ExpenseID,
			CommandID: cmd.CommandID,
		}}, nil
	}

	return []cqrs.Event{WalletCharged{
		WalletID:  w.ID,
		Amount:    cmd.Amount,
		ExpenseID: cmd.ExpenseID,
		CommandID: cmd.CommandID,
	}}, nil
}

func decideDeposit(w Wallet, cmd DepositFunds) ([]cqrs.Event, error) {
	if w.processed(cmd) {
		return nil, ErrDuplicatedCommand
	}
	if !w.created() {
		return nil, ErrWalletNotExists
	}
	if cmd.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrDepositLessOrEqualZero
	}
	return []cqrs.Event{FundsDeposited{WalletID: w.ID, Amount: cmd.Amount, CommandID: cmd.CommandID}}, nil
}

// decideRefund restores the amount recorded for the expense. The amount comes
// from the wallet's own expense record, never from the caller.
func decideRefund(w Wallet, cmd Refund) ([]cqrs.Event, error) {
	if w.processed(cmd) {
		return nil, ErrDuplicatedCommand
	}
	if !w.created() {
		return nil, ErrWalletNotExists
	}

	amount, ok := w.Expenses[cmd.ExpenseID]
	if !ok {
		return nil, ErrExpenseNotFound
	}

	return []cqrs.Event{WalletRefunded{
		WalletID:  w.ID,
		Amount:    amount,
		ExpenseID: cmd.ExpenseID,
		CommandID: cmd.CommandID,
	}}, nil
}

// evolve folds one envelope into the wallet state.
func evolve(w Wallet, env *cqrs.Envelope) Wallet {
	switch ev := env.Event.(type) {
	case WalletCreated:
		return Wallet{
			ID:         ev.WalletID,
			Balance:    ev.InitialAmount,
			CommandIDs: make(map[string]struct{}),
			Expenses:   make(map[string]decimal.Decimal),
		}

	case WalletCharged:
		w.Balance = w.Balance.Sub(ev.Amount)
		w.CommandIDs[ev.CommandID] = struct{}{}
		w.Expenses[ev.ExpenseID] = ev.Amount
		return w

	case WalletChargeRejected:
		w.CommandIDs[ev.CommandID] = struct{}{}
		return w

	case FundsDeposited:
		w.Balance = w.Balance.Add(ev.Amount)
		w.CommandIDs[ev.CommandID] = struct{}{}
		return w

	case WalletRefunded:
		w.Balance = w.Balance.Add(ev.Amount)
		w.CommandIDs[ev.CommandID] = struct{}{}
		delete(w.Expenses, ev.ExpenseID)
		return w

	default:
		return w
	}
}
