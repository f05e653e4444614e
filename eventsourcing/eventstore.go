package eventsourcing

import (
	"context"
)

// EventStore defines the contract for an append-only event store. An
// EventStore persists events associated with a given stream in sequential
// order, allowing full reconstruction of aggregate state at any point in
// time.
//
// Implementations must guarantee:
//   - Events for a given stream are stored in order.
//   - Concurrency control based on the expected StreamState.
//   - Iteration order from all Load* methods is deterministic (oldest → newest).
type EventStore interface {
	// Save appends all events in the given batch to the stream named by the
	// envelopes' StreamID. The revision argument expresses the concurrency
	// requirement: Any, NoStream, StreamExists or an explicit Revision.
	//
	// Errors:
	//   - *StreamRevisionConflictError when an explicit Revision does not match.
	//   - ErrStreamExists / ErrStreamNotFound for NoStream / StreamExists guards.
	//   - Any store-specific persistence error.
	Save(ctx context.Context, events []Envelope, revision StreamState) (AppendResult, error)

	// LoadStream loads all events for the given stream from version 0 onward.
	// Returns ErrStreamNotFound if the stream has no events.
	LoadStream(ctx context.Context, id string) (*Iterator[*Envelope], error)

	// LoadStreamFrom loads all events for the given stream starting at the
	// specified zero-based version index.
	LoadStreamFrom(ctx context.Context, id string, version uint64) (*Iterator[*Envelope], error)

	// LoadFromAll loads events from all streams starting at the specified
	// global sequence position, in append order.
	LoadFromAll(ctx context.Context, version uint64) (*Iterator[*Envelope], error)

	// Close releases any resources held by the EventStore. Implementations
	// should make Close idempotent.
	Close() error
}

// AppendResult describes the outcome of an append operation.
type AppendResult struct {
	Successful          bool
	NextExpectedVersion uint64

	// Events holds the envelopes persisted by the append, in order. Command
	// handlers surface them so callers can inspect which events a command
	// actually produced.
	Events []Envelope
}
