package eventsourcing

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamNotFound is returned when loading a stream that has no events.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrStreamExists is returned when a NoStream append finds an existing stream.
	ErrStreamExists = errors.New("stream already exists")

	// ErrInvalidRevision is returned for revision arguments outside the stream bounds
	// or of an unsupported type.
	ErrInvalidRevision = errors.New("invalid stream revision")

	// ErrInvalidEventBatch is returned when a single append mixes multiple streams.
	ErrInvalidEventBatch = errors.New("invalid event batch")

	// ErrDuplicateHandler is returned when two handlers are registered for the same type.
	ErrDuplicateHandler = errors.New("duplicate handler")

	// ErrHandlerNotFound is returned when no handler is registered for a message type.
	ErrHandlerNotFound = errors.New("handler not found")
)

// StreamRevisionConflictError is returned when an append with an explicit
// Revision guard races with a concurrent writer.
type StreamRevisionConflictError struct {
	Stream           string
	ExpectedRevision Revision
	ActualRevision   Revision
}

func (s *StreamRevisionConflictError) Error() string {
	return fmt.Sprintf("stream %q revision conflict: expected %d, actual %d",
		s.Stream, s.ExpectedRevision, s.ActualRevision)
}

// ErrSkippedEvent is returned when a handler cannot handle the event type.
type ErrSkippedEvent struct {
	Event Event
}

func (e *ErrSkippedEvent) Error() string {
	return fmt.Sprintf("skipped event of type %T", e.Event)
}

type EventStoreError struct {
	Err error
}

func (e *EventStoreError) Error() string {
	return fmt.Sprintf("eventstore error: %v", e.Err)
}

func (e *EventStoreError) Unwrap() error {
	return e.Err
}

func WrapEventStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &EventStoreError{Err: err}
}
