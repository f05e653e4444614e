package eventsourcing

import (
	"context"
	"fmt"

	"github.com/io-da/query"
)

// GenericQueryHandler answers a single query type with a read model.
type GenericQueryHandler[T query.Query, R ReadModel] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// QueryProvider adapts registered read-model handlers to the io-da/query
// handler contract, so read models can be served through an external query
// bus.
type QueryProvider interface {
	query.Handler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, ReadModel])
}

// QueryIteratorProvider is the streaming variant of QueryProvider.
type QueryIteratorProvider interface {
	query.IteratorHandler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, ReadModel])
}

type handler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

func NewQueryProvider() QueryProvider {
	return &handler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *handler) RegisterHandler(name string, h GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = h
}

func (t *handler) Handle(ctx context.Context, qry query.Query, res *query.Result) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Add(result)
	res.Done()

	return nil
}

type iteratorHandler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

func NewQueryIteratorProvider() QueryIteratorProvider {
	return &iteratorHandler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *iteratorHandler) RegisterHandler(name string, h GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = h
}

func (t *iteratorHandler) Handle(ctx context.Context, qry query.Query, res *query.IteratorResult) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Yield(result)
	res.Done()

	return nil
}
