package eventsourcing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// QueryBus acts as a central registry for query handlers. Handlers are keyed
// by their query and result types, allowing multiple query types to be
// registered in a single bus and executed later via a typed
// GenericQueryGateway.
type QueryBus struct {
	handlers map[string]any
}

// NewQueryBus creates a new, empty QueryBus ready for handler registration.
func NewQueryBus() *QueryBus {
	return &QueryBus{
		handlers: make(map[string]any),
	}
}

// HandlerOption represents an optional configuration function that can modify
// handler behavior or metadata. Currently reserved for future extensions such
// as worker pools, timeouts, or rate limiting.
type HandlerOption func(*handlerSettings)

// handlerSettings stores internal configuration for a registered handler.
type handlerSettings struct {
}

// RegisterQueryHandler registers a QueryHandler for a specific query and
// result type on the provided QueryBus. The storage key is generated from the
// two types, so a query type may serve different result shapes under separate
// registrations. Handlers are wrapped with the package metric instruments.
func RegisterQueryHandler[T Query, R any](bus *QueryBus, handler QueryHandler[T, R], opts ...HandlerOption) {
	key := fmt.Sprintf("%T|%T", *new(T), *new(R))

	wrappedHandler := func(ctx context.Context, qry T) (R, error) {
		startTime := time.Now()
		result, err := handler.HandleQuery(ctx, qry)

		if IsInitialized() {
			QueriesHandled.Add(ctx, 1)
			QueriesDuration.Record(ctx, float64(time.Since(startTime).Milliseconds()),
				metric.WithAttributes())
		}

		return result, err
	}

	settings := &handlerSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	bus.handlers[key] = NewQueryHandlerFunc(wrappedHandler)
}
