package eventsourcing

import "context"

type SubscriberOption func(cfg any)

// EventFilter reports whether a subscriber is interested in an event.
type EventFilter func(Event) bool

// MatchAll subscribes to every event.
func MatchAll() EventFilter {
	return func(Event) bool { return true }
}

// MatchEvents subscribes to the named event types only.
func MatchEvents(names ...string) EventFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(ev Event) bool {
		_, ok := set[ev.EventType()]
		return ok
	}
}

// EventBus distributes published envelopes to all matching handlers that are
// registered. Events are not guaranteed to be handled in order across
// subscribers.
type EventBus interface {
	// Subscribe adds a named handler with an event filter. Returns an error
	// if the filter or handler is nil, or if the name is already taken.
	Subscribe(ctx context.Context, name string, filter EventFilter, handler EventHandler, options ...SubscriberOption) error

	// Dispatch delivers a committed envelope to all matching subscribers.
	Dispatch(env *Envelope)

	// Errors returns an error channel where async handling errors are sent.
	Errors() <-chan error

	// Close closes the EventBus and waits for all handlers to finish.
	Close() error
}
