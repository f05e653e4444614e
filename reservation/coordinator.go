package reservation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/terraskye/cinema-saga/cinema"
	"github.com/terraskye/cinema-saga/wallet"
)

// Step identifies the remote call the saga will execute next.
type Step string

const (
	StepNone               Step = ""
	StepReserveSeat        Step = "reserve-seat"
	StepChargeWallet       Step = "charge-wallet"
	StepConfirmReservation Step = "confirm-reservation"
	StepRefund             Step = "refund-wallet"
	StepCancelReservation  Step = "cancel-reservation"
)

// ShowClient is the slice of the show service the coordinator calls.
type ShowClient interface {
	Reserve(ctx context.Context, showID, walletID, reservationID string, seatNumber int) error
	ConfirmPayment(ctx context.Context, showID, reservationID string) error
	CancelReservation(ctx context.Context, showID, reservationID string) error
}

// WalletClient is the slice of the wallet service the coordinator calls.
type WalletClient interface {
	Charge(ctx context.Context, walletID string, amount decimal.Decimal, expenseID, commandID string) error
	Refund(ctx context.Context, walletID, expenseID, commandID string) error
}

// Config bounds the saga's remote calls.
type Config struct {
	// MaxAttempts is the total number of tries per step, first call included.
	MaxAttempts int
	// RetryDelay is the fixed pause between tries.
	RetryDelay time.Duration
	// StepTimeout bounds each individual try.
	StepTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 3 * time.Second
	}
	return c
}

// Coordinator drives seat-reservation sagas. Each saga is a single-writer
// state machine keyed by reservation id; distinct sagas run fully in
// parallel.
type Coordinator struct {
	store   Store
	shows   ShowClient
	wallets WalletClient
	cfg     Config
	logger  logrus.FieldLogger

	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

func NewCoordinator(store Store, shows ShowClient, wallets WalletClient, logger logrus.FieldLogger, cfg Config) *Coordinator {
	return &Coordinator{
		store:   store,
		shows:   shows,
		wallets: wallets,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		running: make(map[string]struct{}),
	}
}

// Start creates the saga in Started and begins executing it asynchronously.
// The caller only ever learns "accepted" or ErrAlreadyExists here; the true
// outcome must be observed through GetStatus, since the distributed
// transaction completes on its own schedule.
func (c *Coordinator) Start(ctx context.Context, reservationID, showID string, seatNumber int, walletID string, price decimal.Decimal) error {
	state := NewSeatReservation(reservationID, showID, seatNumber, walletID, price)
	if err := c.store.Create(ctx, state, StepReserveSeat); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"reservation_id": reservationID,
		"show_id":        showID,
		"seat_number":    seatNumber,
		"wallet_id":      walletID,
	}).Info("seat reservation started")

	c.launch(reservationID)
	return nil
}

// GetStatus returns the saga's current status.
func (c *Coordinator) GetStatus(ctx context.Context, reservationID string) (Status, error) {
	state, _, err := c.store.Load(ctx, reservationID)
	if err != nil {
		return "", err
	}
	return state.Status, nil
}

// Resume restarts every non-terminal saga found in the store. Call it once
// after process start; completed steps are not re-run because the persisted
// step pointer survives the restart.
func (c *Coordinator) Resume(ctx context.Context) error {
	ids, err := c.store.Pending(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		c.logger.WithField("reservation_id", id).Info("resuming seat reservation")
		c.launch(id)
	}
	return nil
}

// Wait blocks until every saga launched by this coordinator has reached a
// terminal status or parked on a failed compensation.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// launch starts the saga runner unless one is already active for the id.
func (c *Coordinator) launch(reservationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.running[reservationID]; ok {
		return
	}
	c.running[reservationID] = struct{}{}
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.running, reservationID)
			c.mu.Unlock()
		}()
		c.run(reservationID)
	}()
}

func (c *Coordinator) run(reservationID string) {
	ctx := context.Background()
	logger := c.logger.WithField("reservation_id", reservationID)

	state, step, err := c.store.Load(ctx, reservationID)
	if err != nil {
		logger.WithError(err).Error("loading reservation state")
		return
	}

	for !state.Status.Terminal() && step != StepNone {
		state, step = c.executeStep(ctx, logger, state, step)
		if err := c.store.Save(ctx, state, step); err != nil {
			logger.WithError(err).Error("saving reservation state")
			return
		}
	}

	logger.WithField("status", state.Status).Info("seat reservation finished")
}

// executeStep performs one remote call and returns the resulting state and
// next step. Transient failures are retried inside the call; only their
// exhaustion routes to a compensating step. Business rejections are final on
// the first reply. Returning StepNone without a terminal status parks the
// saga for a later Resume; that only happens when a compensating call itself
// kept failing.
func (c *Coordinator) executeStep(ctx context.Context, logger logrus.FieldLogger, state SeatReservation, step Step) (SeatReservation, Step) {
	switch step {
	case StepReserveSeat:
		err := c.call(ctx, func(ctx context.Context) error {
			return c.shows.Reserve(ctx, state.ShowID, state.WalletID, state.ReservationID, state.SeatNumber)
		})
		switch {
		case err == nil:
			return state.asSeatReserved(), StepChargeWallet
		case businessError(err):
			logger.WithError(err).Warn("seat reservation rejected")
			return state.asSeatReservationFailed(), StepNone
		default:
			logger.WithError(err).Warn("reserving seat kept failing, cancelling")
			return state, StepCancelReservation
		}

	case StepChargeWallet:
		err := c.call(ctx, func(ctx context.Context) error {
			return c.wallets.Charge(ctx, state.WalletID, state.Price, state.ReservationID, commandID(StepChargeWallet, state.ReservationID))
		})
		switch {
		case err == nil:
			return state.asWalletCharged(), StepConfirmReservation
		case businessError(err):
			logger.WithError(err).Warn("wallet charge rejected")
			return state.asWalletChargeRejected(), StepCancelReservation
		default:
			// The charge may have landed on the wallet side even though no
			// reply arrived, so compensate with an explicit refund before
			// releasing the seat.
			logger.WithError(err).Warn("charging wallet kept failing, refunding")
			return state, StepRefund
		}

	case StepConfirmReservation:
		err := c.call(ctx, func(ctx context.Context) error {
			return c.shows.ConfirmPayment(ctx, state.ShowID, state.ReservationID)
		})
		if err == nil {
			return state.asCompleted(), StepNone
		}
		logger.WithError(err).Warn("confirming reservation failed, refunding")
		return state, StepRefund

	case StepRefund:
		err := c.call(ctx, func(ctx context.Context) error {
			return c.wallets.Refund(ctx, state.WalletID, state.ReservationID, commandID(StepRefund, state.ReservationID))
		})
		if err == nil {
			return state.asWalletRefunded(), StepCancelReservation
		}
		logger.WithError(err).Error("refund kept failing, parking reservation")
		return state, StepNone

	case StepCancelReservation:
		err := c.call(ctx, func(ctx context.Context) error {
			return c.shows.CancelReservation(ctx, state.ShowID, state.ReservationID)
		})
		if err != nil {
			logger.WithError(err).Error("cancellation kept failing, parking reservation")
			return state, StepNone
		}
		finished, err := state.finishAfterCancel()
		if err != nil {
			logger.WithError(err).Error("finishing cancelled reservation")
			return state, StepNone
		}
		return finished, StepNone

	default:
		logger.WithField("step", step).Error("unknown reservation step")
		return state, StepNone
	}
}

// call runs one remote call with the configured per-try timeout and retry
// budget. Business errors abort the retry loop immediately.
func (c *Coordinator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	operation := func() error {
		tryCtx, cancel := context.WithTimeout(ctx, c.cfg.StepTimeout)
		defer cancel()

		err := fn(tryCtx)
		if err != nil && businessError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(c.cfg.RetryDelay),
		uint64(c.cfg.MaxAttempts-1),
	)
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// businessError reports whether an aggregate gave a definitive rejection.
// Rejections are final on first reply; everything else is treated as
// transient and retried.
func businessError(err error) bool {
	switch {
	case errors.Is(err, cinema.ErrShowNotFound),
		errors.Is(err, cinema.ErrSeatNotFound),
		errors.Is(err, cinema.ErrSeatNotAvailable),
		errors.Is(err, cinema.ErrReservationNotFound),
		errors.Is(err, cinema.ErrCancellingConfirmedReservation),
		errors.Is(err, wallet.ErrWalletNotExists),
		errors.Is(err, wallet.ErrExpenseNotFound),
		errors.Is(err, wallet.ErrChargeRejected):
		return true
	}
	return false
}

// commandID derives the deterministic wallet command id for one logical step
// of one reservation. The same logical attempt always produces the same id
// across retries and redeliveries; distinct steps of the same reservation
// never collide.
func commandID(step Step, reservationID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(step)+"/"+reservationID)).String()
}
