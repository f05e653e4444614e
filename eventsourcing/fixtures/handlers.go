package fixtures

import (
	"context"
	"sync"

	es "github.com/terraskye/cinema-saga/eventsourcing"
)

// EventHandlerSpy records every event it handles.
type EventHandlerSpy struct {
	mu     sync.Mutex
	events []es.Event
	err    error
}

func NewEventHandlerSpy() *EventHandlerSpy {
	return &EventHandlerSpy{}
}

// FailOnHandle makes every Handle call return err.
func (h *EventHandlerSpy) FailOnHandle(err error) *EventHandlerSpy {
	h.err = err
	return h
}

func (h *EventHandlerSpy) Handle(ctx context.Context, event es.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.events = append(h.events, event)
	return nil
}

// Events returns a copy of the handled events.
func (h *EventHandlerSpy) Events() []es.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]es.Event, len(h.events))
	copy(out, h.events)
	return out
}

// LastEvent returns the most recently handled event, or nil.
func (h *EventHandlerSpy) LastEvent() es.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return nil
	}
	return h.events[len(h.events)-1]
}

// EventCount reports how many events have been handled.
func (h *EventHandlerSpy) EventCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}
