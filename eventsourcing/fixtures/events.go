// Package fixtures provides test doubles and builders for the eventsourcing
// package. It is imported by _test.go files only.
package fixtures

import "fmt"

// TestEvent is a configurable test event implementing the Event interface.
type TestEvent struct {
	ID   string
	Type string
	Data string
}

func (e TestEvent) AggregateID() string { return e.ID }
func (e TestEvent) EventType() string   { return e.Type }

// TestEventBuilder provides a fluent API for constructing test events.
type TestEventBuilder struct {
	id   string
	typ  string
	data string
}

// NewTestEvent creates a builder with sensible defaults.
func NewTestEvent() *TestEventBuilder {
	return &TestEventBuilder{
		id:  "stream-1",
		typ: "TestEvent",
	}
}

func (b *TestEventBuilder) WithID(id string) *TestEventBuilder {
	b.id = id
	return b
}

func (b *TestEventBuilder) WithType(typ string) *TestEventBuilder {
	b.typ = typ
	return b
}

func (b *TestEventBuilder) WithData(data string) *TestEventBuilder {
	b.data = data
	return b
}

func (b *TestEventBuilder) Build() TestEvent {
	return TestEvent{ID: b.id, Type: b.typ, Data: b.data}
}

// BuildN constructs n distinct events sharing the builder's stream ID.
func (b *TestEventBuilder) BuildN(n int) []TestEvent {
	events := make([]TestEvent, n)
	for i := range events {
		events[i] = TestEvent{ID: b.id, Type: b.typ, Data: fmt.Sprintf("%s-%d", b.data, i)}
	}
	return events
}
