package wallet

import "errors"

var (
	// ErrWalletAlreadyExists rejects a second CreateWallet against the same id.
	ErrWalletAlreadyExists = errors.New("wallet already exists")

	// ErrWalletNotExists is returned for any command against an uncreated wallet.
	ErrWalletNotExists = errors.New("wallet not exists")

	// ErrDuplicatedCommand rejects a command id that was already processed.
	// Callers treat it as a successful no-op.
	ErrDuplicatedCommand = errors.New("duplicated command")

	// ErrDepositLessOrEqualZero rejects non-positive deposit amounts.
	ErrDepositLessOrEqualZero = errors.New("deposit must be positive")

	// ErrExpenseNotFound is returned when refunding an expense that was
	// never charged or was already refunded.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrChargeRejected signals an insufficient-funds rejection to the
	// caller. The rejection itself is a persisted, deduplicated event.
	ErrChargeRejected = errors.New("wallet charge rejected")
)
