package eventsourcing

import (
	"context"
)

// Query is the interface that must be implemented by any type to be
// considered a query.
type Query interface {
	ID() []byte
}

// QueryHandler represents a handler for a specific query type T producing a
// result of type R, allowing generic, type-safe registration and execution of
// query logic.
type QueryHandler[T Query, R any] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// queryHandlerFunc allows ordinary functions to implement QueryHandler[T,R].
type queryHandlerFunc[T Query, R any] func(ctx context.Context, qry T) (R, error)

// HandleQuery calls the underlying function.
func (f queryHandlerFunc[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	return f(ctx, qry)
}

// NewQueryHandlerFunc creates a QueryHandler from a function.
//
// Example Usage:
//
//	handler := NewQueryHandlerFunc(func(ctx context.Context, q SeatStatusQuery) (SeatStatus, error) {
//	    ...
//	})
func NewQueryHandlerFunc[T Query, R any](fn func(ctx context.Context, qry T) (R, error)) QueryHandler[T, R] {
	return queryHandlerFunc[T, R](fn)
}
