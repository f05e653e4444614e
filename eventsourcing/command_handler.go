package eventsourcing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// StreamNamer produces the stream name for a given command, with access to context.
type StreamNamer func(ctx context.Context, cmd Command) string

// DefaultStreamNamer is the default function used to determine the stream
// name for a command when no custom StreamNamer is provided. By default the
// AggregateID of the command is the stream name.
//
// It can be overridden globally, for example to support multi-tenancy or
// per-aggregate-type prefixes:
//
//	DefaultStreamNamer = func(ctx context.Context, cmd Command) string {
//	    return "cinema-show-" + cmd.AggregateID()
//	}
var DefaultStreamNamer StreamNamer = func(ctx context.Context, cmd Command) string {
	return cmd.AggregateID()
}

// CommandHandler handles commands of a specific type. Implementations
// validate the command against current aggregate state and express any state
// change as persisted events.
type CommandHandler[C Command] func(ctx context.Context, command C) (AppendResult, error)

// Evolver folds a single historical envelope into the aggregate state,
// returning the new state. Folding must be deterministic and total: replaying
// the same event sequence from the initial state always produces the same
// state.
type Evolver[T any] func(currentState T, envelope *Envelope) T

// Decider determines which events should occur based on the current state and
// a command.
//
// The Decider must not mutate the input state; it produces events that, when
// applied via the Evolver, update the state. Returning an empty slice means
// the command had no effect. Returning an error rejects the command as a
// business rule violation; nothing is persisted.
type Decider[T any, C Command] func(state T, cmd C) ([]Event, error)

// CommandHandlerOption modifies handlerOptions when constructing a
// NewCommandHandler.
type CommandHandlerOption func(configuration *handlerOptions)

// NewCommandHandler returns a generic command handler for any aggregate type.
//
// It implements the canonical event-sourced command pipeline:
//  1. Load the event history for the command's stream.
//  2. Evolve the current state from the history.
//  3. Decide which new events should occur for the command.
//  4. Wrap the decided events in envelopes with version numbers and metadata.
//  5. Persist the envelopes, respecting the configured revision guard.
//
// A stream that does not exist yet is treated as empty history, so deciders
// observe the initial state for the first command against an aggregate.
//
// On a revision conflict the handler reloads and retries according to the
// configured backoff strategy; business rule violations and persistence
// failures are permanent.
func NewCommandHandler[T any, C Command](
	store EventStore,
	initialState T,
	evolve Evolver[T],
	decide Decider[T, C],
	opts ...CommandHandlerOption,
) CommandHandler[C] {
	return func(ctx context.Context, command C) (AppendResult, error) {
		cfg := &handlerOptions{
			Revision:      Any{},
			RetryStrategy: &backoff.StopBackOff{},
			MetadataFuncs: []func(ctx context.Context) map[string]any{},
			StreamNamer:   DefaultStreamNamer,
		}
		for _, o := range opts {
			o(cfg)
		}

		var stream = cfg.StreamNamer(ctx, command)

		result, err := backoff.RetryWithData(func() (AppendResult, error) {
			state := initialState
			var revision uint64

			// --- Load history ---
			iter, err := store.LoadStream(ctx, stream)
			switch {
			case errors.Is(err, ErrStreamNotFound):
				// First command against this aggregate: empty history.
			case err != nil:
				return AppendResult{Successful: false},
					backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): load failed: %w", command, command.AggregateID(), stream, err))
			default:
				for iter.Next(ctx) {
					envelope := iter.Value()
					revision = envelope.Version
					state = evolve(state, envelope)
				}
				if err := iter.Err(); err != nil {
					return AppendResult{Successful: false, NextExpectedVersion: revision},
						fmt.Errorf("handle command %T for aggregate %q (stream %q): iter failed: %w", command, command.AggregateID(), stream, err)
				}
			}

			// Pin an explicit revision guard to the observed version.
			guard := cfg.Revision
			if _, ok := guard.(Revision); ok {
				guard = Revision(revision)
			}

			// --- Decide events ---
			events, err := decide(state, command)
			if err != nil {
				return AppendResult{Successful: false},
					backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): %w", command, command.AggregateID(), stream, err))
			}

			if len(events) == 0 {
				return AppendResult{Successful: true, NextExpectedVersion: revision}, nil
			}

			// --- Wrap events in envelopes ---
			envelopes := make([]Envelope, len(events))
			baseMetadata := make(map[string]any)
			for _, fn := range cfg.MetadataFuncs {
				for k, v := range fn(ctx) {
					baseMetadata[k] = v
				}
			}

			expectedVersion := revision
			for i, event := range events {
				expectedVersion++
				envelopes[i] = Envelope{
					EventID:    uuid.New(),
					StreamID:   stream,
					Event:      event,
					Metadata:   baseMetadata,
					Version:    expectedVersion,
					OccurredAt: time.Now(),
				}
			}

			// --- Persist events ---
			result, err := store.Save(ctx, envelopes, guard)
			if err != nil {
				var conflict *StreamRevisionConflictError
				if errors.As(err, &conflict) {
					return AppendResult{Successful: false, NextExpectedVersion: revision}, conflict
				}
				return result, backoff.Permanent(fmt.Errorf("handle command %T for aggregate %q (stream %q): failed to save event: %w", command, command.AggregateID(), stream, err))
			}
			if len(result.Events) == 0 {
				result.Events = envelopes
			}
			return result, nil
		}, cfg.RetryStrategy)

		return result, err
	}
}

// handlerOptions defines configuration for a CommandHandler.
type handlerOptions struct {
	// Revision is the concurrency guard applied when saving events to the
	// stream (default is Any).
	Revision StreamState

	// RetryStrategy defines how the handler retries on version conflicts.
	// The zero configuration performs no retries.
	RetryStrategy backoff.BackOff

	// MetadataFuncs enrich events with metadata before saving. Each function
	// receives the context and returns a map of key-value pairs.
	MetadataFuncs []func(ctx context.Context) map[string]any

	// StreamNamer produces the name of the event stream for a command.
	StreamNamer StreamNamer
}

// WithRevision sets the expected stream revision for a NewCommandHandler.
//
//   - Any{}: no version check (default)
//   - NoStream{}: the stream must not exist
//   - StreamExists{}: the stream must exist
//   - Revision(n): the stream must be at version n; Revision(0) pins the
//     guard to the version observed while loading.
func WithRevision(rev StreamState) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.Revision = rev }
}

// WithRetryStrategy sets the retry strategy used on concurrency conflicts.
func WithRetryStrategy(strategy backoff.BackOff) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.RetryStrategy = strategy }
}

// WithMetadataExtractor adds a metadata function to a NewCommandHandler.
// Multiple extractors can be combined; they are applied in order of
// registration.
func WithMetadataExtractor(fn func(ctx context.Context) map[string]any) CommandHandlerOption {
	return func(h *handlerOptions) {
		h.MetadataFuncs = append(h.MetadataFuncs, fn)
	}
}

// WithStreamNamer overrides the stream naming function for a single handler.
func WithStreamNamer(namer StreamNamer) CommandHandlerOption {
	return func(h *handlerOptions) {
		h.StreamNamer = namer
	}
}
