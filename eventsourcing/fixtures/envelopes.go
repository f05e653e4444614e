package fixtures

import (
	"time"

	"github.com/google/uuid"

	es "github.com/terraskye/cinema-saga/eventsourcing"
)

// EnvelopeOption is a functional option for configuring an Envelope.
type EnvelopeOption func(*es.Envelope)

// NewEnvelope creates an Envelope with the given event and options.
func NewEnvelope(event es.Event, opts ...EnvelopeOption) *es.Envelope {
	env := &es.Envelope{
		EventID:       uuid.New(),
		StreamID:      event.AggregateID(),
		Event:         event,
		Version:       1,
		GlobalVersion: 1,
		OccurredAt:    time.Now(),
		Metadata:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// WithEventID sets a specific event ID.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *es.Envelope) { e.EventID = id }
}

// WithStreamID overrides the stream ID (defaults to the event's AggregateID).
func WithStreamID(id string) EnvelopeOption {
	return func(e *es.Envelope) { e.StreamID = id }
}

// WithVersion sets the stream version.
func WithVersion(v uint64) EnvelopeOption {
	return func(e *es.Envelope) { e.Version = v }
}

// WithGlobalVersion sets the global sequence position.
func WithGlobalVersion(v uint64) EnvelopeOption {
	return func(e *es.Envelope) { e.GlobalVersion = v }
}

// WithTimestamp sets the envelope timestamp.
func WithTimestamp(t time.Time) EnvelopeOption {
	return func(e *es.Envelope) { e.OccurredAt = t }
}

// WithMetadataField sets a single metadata key.
func WithMetadataField(key string, value any) EnvelopeOption {
	return func(e *es.Envelope) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// EnvelopesFromEvents wraps events in envelopes with sequential versions,
// starting at version 1.
func EnvelopesFromEvents(events ...es.Event) []*es.Envelope {
	envelopes := make([]*es.Envelope, len(events))
	for i, ev := range events {
		envelopes[i] = NewEnvelope(ev,
			WithVersion(uint64(i+1)),
			WithGlobalVersion(uint64(i+1)),
		)
	}
	return envelopes
}
