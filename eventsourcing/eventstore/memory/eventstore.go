package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/terraskye/cinema-saga/eventsourcing"
)

var _ eventsourcing.EventStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory EventStore. Streams are per-id slices plus a
// global append log; committed envelopes are also pushed to an outbound
// channel so a bus pump can relay them to subscribers.
type MemoryStore struct {
	mu     sync.RWMutex
	bus    chan *eventsourcing.Envelope
	global []*eventsourcing.Envelope
	events map[string][]*eventsourcing.Envelope
}

func NewMemoryStore(buffer int64) *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]*eventsourcing.Envelope),
		global: make([]*eventsourcing.Envelope, 0),
		bus:    make(chan *eventsourcing.Envelope, buffer),
	}
}

func (m *MemoryStore) Save(ctx context.Context, events []eventsourcing.Envelope, revision eventsourcing.StreamState) (eventsourcing.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(events) == 0 {
		return eventsourcing.AppendResult{Successful: true, NextExpectedVersion: 0}, nil
	}

	streamId := events[0].StreamID
	for i, env := range events {
		if env.StreamID != streamId {
			return eventsourcing.AppendResult{}, fmt.Errorf(
				"save events to stream %q: %w: event %d has different stream ID %q",
				streamId, eventsourcing.ErrInvalidEventBatch, i, env.StreamID,
			)
		}
	}

	currentVersion := uint64(len(m.events[streamId]))

	switch rev := revision.(type) {
	case eventsourcing.Any:
		// No concurrency check
	case eventsourcing.NoStream:
		if currentVersion != 0 {
			err := fmt.Errorf("stream %q: already exists: %w", streamId, eventsourcing.ErrStreamExists)
			return eventsourcing.AppendResult{Successful: false}, err
		}
	case eventsourcing.StreamExists:
		if currentVersion == 0 {
			err := fmt.Errorf("stream %q: should exist: %w", streamId, eventsourcing.ErrStreamNotFound)
			return eventsourcing.AppendResult{Successful: false}, err
		}
	case eventsourcing.Revision:
		if currentVersion != uint64(rev) {
			return eventsourcing.AppendResult{}, &eventsourcing.StreamRevisionConflictError{
				Stream:           streamId,
				ExpectedRevision: rev,
				ActualRevision:   eventsourcing.Revision(currentVersion),
			}
		}
	default:
		err := fmt.Errorf("unsupported revision type for stream %q: %w", streamId, eventsourcing.ErrInvalidRevision)
		return eventsourcing.AppendResult{Successful: false}, err
	}

	for i := range events {
		events[i].GlobalVersion = uint64(len(m.global)) + 1
		m.events[streamId] = append(m.events[streamId], &events[i])
		m.global = append(m.global, &events[i])
		currentVersion++

		select {
		case m.bus <- &events[i]:
		default:
			slog.Warn("event store relay channel full, dropping envelope",
				"stream_id", events[i].StreamID,
				"event_id", events[i].EventID,
				"version", events[i].Version,
			)
		}
	}

	return eventsourcing.AppendResult{
		Successful:          true,
		NextExpectedVersion: currentVersion,
		Events:              events,
	}, nil
}

func (m *MemoryStore) LoadStream(ctx context.Context, id string) (*eventsourcing.Iterator[*eventsourcing.Envelope], error) {
	return m.LoadStreamFrom(ctx, id, 0)
}

func (m *MemoryStore) LoadStreamFrom(ctx context.Context, id string, version uint64) (*eventsourcing.Iterator[*eventsourcing.Envelope], error) {
	m.mu.RLock()
	events, exists := m.events[id]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("load stream %q: %w", id, eventsourcing.ErrStreamNotFound)
	}

	if int(version) > len(events) {
		return nil, fmt.Errorf(
			"load stream %q: requested %d but stream has %d: %w",
			id, version, len(events), eventsourcing.ErrInvalidRevision,
		)
	}

	index := version
	iter := eventsourcing.NewIteratorFunc(func(ctx context.Context) (*eventsourcing.Envelope, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if int(index) >= len(events) {
			return nil, io.EOF
		}
		ev := events[index]
		index++
		return ev, nil
	})

	return iter, nil
}

func (m *MemoryStore) LoadFromAll(ctx context.Context, version uint64) (*eventsourcing.Iterator[*eventsourcing.Envelope], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if int(version) > len(m.global) {
		return nil, fmt.Errorf("load all from %d: log has %d: %w", version, len(m.global), eventsourcing.ErrInvalidRevision)
	}

	all := make([]*eventsourcing.Envelope, len(m.global[version:]))
	copy(all, m.global[version:])

	return eventsourcing.NewSliceIterator(all), nil
}

// Events exposes the outbound channel of committed envelopes.
func (m *MemoryStore) Events() <-chan *eventsourcing.Envelope {
	return m.bus
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		return nil
	}
	m.events = nil
	close(m.bus)
	return nil
}
