package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/logging"
	cqrsotel "github.com/terraskye/cinema-saga/eventsourcing/otel"
)

const streamPrefix = "wallet-"

// StreamID returns the event stream name for a wallet id.
func StreamID(walletID string) string { return streamPrefix + walletID }

func streamNamer(ctx context.Context, cmd cqrs.Command) string {
	return StreamID(cmd.AggregateID())
}

// Service exposes the wallet aggregate's operations.
type Service struct {
	store cqrs.EventStore
	bus   *cqrs.CommandBus
}

// NewService registers the wallet command handlers on the bus and returns the
// service.
func NewService(store cqrs.EventStore, bus *cqrs.CommandBus, logger logrus.FieldLogger) *Service {
	s := &Service{store: store, bus: bus}

	retry := func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 3)
	}

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Wallet{}, evolve, decideCreate,
			cqrs.WithRevision(cqrs.NoStream{}),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Wallet{}, evolve, decideCharge,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Wallet{}, evolve, decideDeposit,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	cqrs.Register(bus, logging.WithCommandLogging(logger, cqrsotel.WithCommandTelemetry(
		cqrs.NewCommandHandler(store, Wallet{}, evolve, decideRefund,
			cqrs.WithRevision(cqrs.Revision(0)),
			cqrs.WithRetryStrategy(retry()),
			cqrs.WithStreamNamer(streamNamer),
		))))

	return s
}

// Create creates a wallet with the given starting balance.
func (s *Service) Create(ctx context.Context, walletID string, initialAmount decimal.Decimal) error {
	_, err := s.bus.Dispatch(ctx, CreateWallet{WalletID: walletID, InitialAmount: initialAmount})
	if errors.Is(err, cqrs.ErrStreamExists) {
		return ErrWalletAlreadyExists
	}
	return err
}

// Charge withdraws amount for the given expense. A rejected charge (the
// balance was insufficient) is reported as ErrChargeRejected; the rejection
// is itself recorded under the command id, so a redelivery of the same
// command is absorbed as a no-op success rather than re-evaluated.
func (s *Service) Charge(ctx context.Context, walletID string, amount decimal.Decimal, expenseID, commandID string) error {
	result, err := s.bus.Dispatch(ctx, ChargeWallet{
		WalletID:  walletID,
		Amount:    amount,
		ExpenseID: expenseID,
		CommandID: commandID,
	})
	if errors.Is(err, ErrDuplicatedCommand) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, env := range result.Events {
		if _, ok := env.Event.(WalletChargeRejected); ok {
			return ErrChargeRejected
		}
	}
	return nil
}

// Deposit adds amount to the balance.
func (s *Service) Deposit(ctx context.Context, walletID string, amount decimal.Decimal, commandID string) error {
	_, err := s.bus.Dispatch(ctx, DepositFunds{WalletID: walletID, Amount: amount, CommandID: commandID})
	if errors.Is(err, ErrDuplicatedCommand) {
		return nil
	}
	return err
}

// Refund restores the amount recorded for the expense. An unknown expense id
// is reported as success: either the charge never landed or it was already
// refunded, and in both cases the money is where it should be.
func (s *Service) Refund(ctx context.Context, walletID, expenseID, commandID string) error {
	_, err := s.bus.Dispatch(ctx, Refund{WalletID: walletID, ExpenseID: expenseID, CommandID: commandID})
	switch {
	case errors.Is(err, ErrDuplicatedCommand), errors.Is(err, ErrExpenseNotFound):
		return nil
	}
	return err
}

// Get folds the wallet's stream into its current state.
func (s *Service) Get(ctx context.Context, walletID string) (Wallet, error) {
	iter, err := s.store.LoadStream(ctx, StreamID(walletID))
	if errors.Is(err, cqrs.ErrStreamNotFound) {
		return Wallet{}, ErrWalletNotExists
	}
	if err != nil {
		return Wallet{}, err
	}

	var state Wallet
	for iter.Next(ctx) {
		state = evolve(state, iter.Value())
	}
	if err := iter.Err(); err != nil {
		return Wallet{}, err
	}
	if !state.created() {
		return Wallet{}, ErrWalletNotExists
	}
	return state, nil
}

// Balance returns the wallet's current balance.
func (s *Service) Balance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	w, err := s.Get(ctx, walletID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return w.Balance, nil
}
