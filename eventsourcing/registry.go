package eventsourcing

import (
	"fmt"
	"sync"
)

var (
	// registry maps event names to their factory functions. Each factory must
	// return a new instance of a concrete Event type.
	registry = map[string]func() Event{}

	// mu protects access to the registry for concurrent operations.
	mu sync.RWMutex
)

// RegisterEventByType registers a new Event type using its default type name,
// so stores that persist events by name can rebuild them on load.
//
// Panics if the factory is nil, returns nil, or if an event with the same
// type name is already registered.
//
// Example Usage:
//
//	RegisterEventByType(func() Event { return &SeatReserved{} })
func RegisterEventByType(fn func() Event) {
	registerEventName(fn().EventType(), fn)
}

// RegisterEventByName registers a new Event type under a custom name,
// independent of EventType().
func RegisterEventByName(name string, fn func() Event) {
	registerEventName(name, fn)
}

// NewEventByName creates a new instance of a registered Event by its name.
// Returns an error if the event is not registered or the factory returned nil.
func NewEventByName(name string) (Event, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("event not registered: %s", name)
	}
	ev := factory()
	if ev == nil {
		return nil, fmt.Errorf("factory returned nil for event: %s", name)
	}
	return ev, nil
}

func registerEventName(name string, fn func() Event) {
	if fn == nil {
		panic("cannot register nil factory")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("event already registered: %s", name))
	}

	ev := fn()
	if ev == nil {
		panic(fmt.Sprintf("factory returned nil for event: %s", name))
	}

	registry[name] = fn
}
