package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

type subscriber struct {
	name    string
	filter  cqrs.EventFilter
	handler cqrs.EventHandler
	events  chan *cqrs.Envelope
	cancel  context.CancelFunc
}

type eventBus struct {
	mu         sync.RWMutex
	subs       map[string]*subscriber
	closed     bool
	errs       chan error
	wg         sync.WaitGroup
	bufferSize int
}

// NewEventBus constructs a new bus with a given subscriber buffer size.
func NewEventBus(bufferSize int) cqrs.EventBus {
	return &eventBus{
		subs:       make(map[string]*subscriber),
		errs:       make(chan error, 64),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a handler with a filter and name.
func (b *eventBus) Subscribe(
	ctx context.Context,
	name string,
	filter cqrs.EventFilter,
	handler cqrs.EventHandler,
	opts ...cqrs.SubscriberOption,
) error {
	if filter == nil || handler == nil {
		return errors.New("filter and handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("eventbus is closed")
	}

	if _, exists := b.subs[name]; exists {
		return fmt.Errorf("handler with name %q already registered: %w", name, cqrs.ErrDuplicateHandler)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s := &subscriber{
		name:    name,
		filter:  filter,
		handler: handler,
		events:  make(chan *cqrs.Envelope, b.bufferSize),
		cancel:  cancel,
	}

	b.subs[name] = s

	b.wg.Add(1)
	go b.runSubscriber(workerCtx, s)

	// Automatically remove when the caller's ctx finishes.
	go func() {
		<-ctx.Done()
		b.removeSubscriber(name)
	}()

	return nil
}

func (b *eventBus) Errors() <-chan error {
	return b.errs
}

// Close shuts down the bus and waits for all workers.
func (b *eventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for name, s := range b.subs {
		s.cancel()
		close(s.events)
		delete(b.subs, name)
	}
	b.mu.Unlock()

	b.wg.Wait()
	close(b.errs)

	return nil
}

// runSubscriber processes envelopes for a single handler.
func (b *eventBus) runSubscriber(ctx context.Context, s *subscriber) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-s.events:
			if !ok {
				return
			}

			handlerCtx := cqrs.WithEnvelope(ctx, env)
			if err := s.handler.Handle(handlerCtx, env.Event); err != nil {
				var skipped *cqrs.ErrSkippedEvent
				if errors.As(err, &skipped) {
					continue
				}
				select {
				case b.errs <- fmt.Errorf("handler %q: %w", s.name, err):
				default:
					// Drop error if channel full
				}
			}
		}
	}
}

func (b *eventBus) removeSubscriber(name string) {
	b.mu.Lock()
	s, ok := b.subs[name]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, name)
	b.mu.Unlock()

	s.cancel()
	close(s.events)
}

// Dispatch sends an envelope to all matching subscribers.
func (b *eventBus) Dispatch(env *cqrs.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, s := range b.subs {
		if s.filter(env.Event) {
			select {
			case s.events <- env:
			default:
				slog.Warn("subscriber buffer full, dropping envelope",
					"subscriber", s.name,
					"stream_id", env.StreamID,
					"event_id", env.EventID,
				)
			}
		}
	}
}
