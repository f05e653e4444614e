package reservation

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrAlreadyExists rejects starting a second saga for a reservation id.
	ErrAlreadyExists = errors.New("reservation already exists")

	// ErrNotFound is returned when no saga exists for a reservation id.
	ErrNotFound = errors.New("reservation not found")
)

// Store persists saga state between steps. The record is the current state
// snapshot plus the step it is about to execute, which is enough to resume
// after a crash without re-running completed steps.
type Store interface {
	// Create stores a fresh saga. It fails with ErrAlreadyExists if a saga
	// for the same reservation id was ever created.
	Create(ctx context.Context, state SeatReservation, step Step) error

	// Save overwrites the saga's state and current step.
	Save(ctx context.Context, state SeatReservation, step Step) error

	// Load returns the saga's state and current step, or ErrNotFound.
	Load(ctx context.Context, reservationID string) (SeatReservation, Step, error)

	// Pending returns the ids of all sagas that have not reached a terminal
	// status.
	Pending(ctx context.Context) ([]string, error)
}

type record struct {
	state SeatReservation
	step  Step
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]record)}
}

func (m *MemoryStore) Create(ctx context.Context, state SeatReservation, step Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[state.ReservationID]; ok {
		return ErrAlreadyExists
	}
	m.records[state.ReservationID] = record{state: state, step: step}
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, state SeatReservation, step Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[state.ReservationID]; !ok {
		return ErrNotFound
	}
	m.records[state.ReservationID] = record{state: state, step: step}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, reservationID string) (SeatReservation, Step, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[reservationID]
	if !ok {
		return SeatReservation{}, StepNone, ErrNotFound
	}
	return rec.state, rec.step, nil
}

func (m *MemoryStore) Pending(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, rec := range m.records {
		if !rec.state.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
