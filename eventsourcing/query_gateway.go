package eventsourcing

import (
	"context"
	"fmt"
)

// GenericQueryGateway provides a typed interface for executing queries
// registered on a QueryBus. It implements QueryHandler[T,R] itself, so it can
// be used wherever a QueryHandler is expected.
//
// Example Usage:
//
//	bus := NewQueryBus()
//	RegisterQueryHandler[SeatStatusQuery, SeatStatus](bus, handler)
//
//	gateway := NewQueryGateway[SeatStatusQuery, SeatStatus](bus)
//	status, err := gateway.HandleQuery(ctx, SeatStatusQuery{ShowID: "s1", SeatNumber: 10})
type GenericQueryGateway[T Query, R any] struct {
	bus *QueryBus
}

// NewQueryGateway creates a typed gateway for a specific query type backed by
// a QueryBus.
func NewQueryGateway[T Query, R any](bus *QueryBus) GenericQueryGateway[T, R] {
	return GenericQueryGateway[T, R]{bus: bus}
}

// HandleQuery executes the registered handler for a given query. Lookup is
// done at runtime using the query and result types; returns an error if no
// handler is registered or a type mismatch occurs.
func (g GenericQueryGateway[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	key := fmt.Sprintf("%T|%T", qry, *new(R))

	h, ok := g.bus.handlers[key]
	if !ok {
		var zero R
		return zero, fmt.Errorf("no handler registered for query %T -> %T: %w", qry, *new(R), ErrHandlerNotFound)
	}

	handler, ok := h.(QueryHandler[T, R])
	if !ok {
		var zero R
		return zero, fmt.Errorf("handler type mismatch for query %T -> %T", qry, *new(R))
	}

	return handler.HandleQuery(ctx, qry)
}
