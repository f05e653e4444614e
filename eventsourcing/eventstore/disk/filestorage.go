package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

var _ cqrs.EventStore = (*FilesStore)(nil)

// FilesStore is a file-backed append-only event store: one JSON document per
// event under <dir>/<stream>/<version>.json, plus a copy in <dir>/all keyed
// by global sequence. Events are rebuilt through the event registry, so every
// persisted event type must be registered before loading.
type FilesStore struct {
	baseDir   string
	mu        sync.Mutex
	bus       chan *cqrs.Envelope
	globalSeq uint64
}

func NewFileStore(dir string) (*FilesStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "all"), 0o755); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(dir, "all"))
	if err != nil {
		return nil, err
	}

	return &FilesStore{
		baseDir:   dir,
		bus:       make(chan *cqrs.Envelope, 100),
		globalSeq: uint64(len(entries)),
	}, nil
}

// persistedEnvelope is the on-disk representation of an Envelope. The event
// payload is stored together with its registered type name.
type persistedEnvelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	StreamID      string          `json:"stream_id"`
	EventType     string          `json:"event_type"`
	Event         json.RawMessage `json:"event"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	Version       uint64          `json:"version"`
	GlobalVersion uint64          `json:"global_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func (f *FilesStore) streamDir(id string) string {
	return filepath.Join(f.baseDir, id)
}

func (f *FilesStore) Save(ctx context.Context, events []cqrs.Envelope, revision cqrs.StreamState) (cqrs.AppendResult, error) {
	if len(events) == 0 {
		return cqrs.AppendResult{Successful: true}, nil
	}

	id := events[0].StreamID
	for i, env := range events {
		if env.StreamID != id {
			return cqrs.AppendResult{}, fmt.Errorf(
				"save events to stream %q: %w: event %d has different stream ID %q",
				id, cqrs.ErrInvalidEventBatch, i, env.StreamID,
			)
		}
	}

	sdir := f.streamDir(id)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(sdir, 0o755); err != nil {
		return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
	}

	files, err := os.ReadDir(sdir)
	if err != nil {
		return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
	}
	currentVersion := uint64(len(files))

	switch rev := revision.(type) {
	case cqrs.Any:
		// No concurrency check
	case cqrs.NoStream:
		if currentVersion != 0 {
			return cqrs.AppendResult{Successful: false},
				fmt.Errorf("stream %q: already exists: %w", id, cqrs.ErrStreamExists)
		}
	case cqrs.StreamExists:
		if currentVersion == 0 {
			return cqrs.AppendResult{Successful: false},
				fmt.Errorf("stream %q: should exist: %w", id, cqrs.ErrStreamNotFound)
		}
	case cqrs.Revision:
		if currentVersion != uint64(rev) {
			return cqrs.AppendResult{}, &cqrs.StreamRevisionConflictError{
				Stream:           id,
				ExpectedRevision: rev,
				ActualRevision:   cqrs.Revision(currentVersion),
			}
		}
	default:
		return cqrs.AppendResult{Successful: false},
			fmt.Errorf("unsupported revision type for stream %q: %w", id, cqrs.ErrInvalidRevision)
	}

	for i := range events {
		currentVersion++
		f.globalSeq++
		events[i].GlobalVersion = f.globalSeq

		payload, err := json.Marshal(events[i].Event)
		if err != nil {
			return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
		}

		doc, err := json.Marshal(persistedEnvelope{
			EventID:       events[i].EventID,
			StreamID:      events[i].StreamID,
			EventType:     events[i].Event.EventType(),
			Event:         payload,
			Metadata:      events[i].Metadata,
			Version:       events[i].Version,
			GlobalVersion: events[i].GlobalVersion,
			OccurredAt:    events[i].OccurredAt,
		})
		if err != nil {
			return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
		}

		name := fmt.Sprintf("%020d.json", events[i].Version)
		if err := os.WriteFile(filepath.Join(sdir, name), doc, 0o644); err != nil {
			return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
		}

		globalName := fmt.Sprintf("%020d.json", events[i].GlobalVersion)
		if err := os.WriteFile(filepath.Join(f.baseDir, "all", globalName), doc, 0o644); err != nil {
			return cqrs.AppendResult{Successful: false}, cqrs.WrapEventStoreError(err)
		}

		select {
		case f.bus <- &events[i]:
		default:
			slog.Warn("event store relay channel full, dropping envelope",
				"stream_id", events[i].StreamID,
				"event_id", events[i].EventID,
				"version", events[i].Version,
			)
		}
	}

	return cqrs.AppendResult{
		Successful:          true,
		NextExpectedVersion: currentVersion,
		Events:              events,
	}, nil
}

func (f *FilesStore) LoadStream(ctx context.Context, id string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	return f.LoadStreamFrom(ctx, id, 0)
}

func (f *FilesStore) LoadStreamFrom(ctx context.Context, id string, version uint64) (*cqrs.Iterator[*cqrs.Envelope], error) {
	f.mu.Lock()
	envelopes, err := f.readDirEnvelopes(f.streamDir(id))
	f.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load stream %q: %w", id, cqrs.ErrStreamNotFound)
		}
		return nil, cqrs.WrapEventStoreError(err)
	}

	if int(version) > len(envelopes) {
		return nil, fmt.Errorf(
			"load stream %q: requested %d but stream has %d: %w",
			id, version, len(envelopes), cqrs.ErrInvalidRevision,
		)
	}

	return cqrs.NewSliceIterator(envelopes[version:]), nil
}

func (f *FilesStore) LoadFromAll(ctx context.Context, version uint64) (*cqrs.Iterator[*cqrs.Envelope], error) {
	f.mu.Lock()
	envelopes, err := f.readDirEnvelopes(filepath.Join(f.baseDir, "all"))
	f.mu.Unlock()

	if err != nil {
		return nil, cqrs.WrapEventStoreError(err)
	}

	if int(version) > len(envelopes) {
		return nil, fmt.Errorf("load all from %d: log has %d: %w", version, len(envelopes), cqrs.ErrInvalidRevision)
	}

	return cqrs.NewSliceIterator(envelopes[version:]), nil
}

// readDirEnvelopes reads and decodes every event file in dir, in filename
// order. Filenames are zero-padded sequence numbers, so lexical order is
// append order.
func (f *FilesStore) readDirEnvelopes(dir string) ([]*cqrs.Envelope, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	envelopes := make([]*cqrs.Envelope, 0, len(names))
	for _, name := range names {
		doc, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		var p persistedEnvelope
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}

		factory, err := cqrs.NewEventByName(p.EventType)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if err := json.Unmarshal(p.Event, factory); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", name, err)
		}
		event := derefEvent(factory)

		envelopes = append(envelopes, &cqrs.Envelope{
			EventID:       p.EventID,
			StreamID:      p.StreamID,
			Metadata:      p.Metadata,
			Event:         event,
			Version:       p.Version,
			GlobalVersion: p.GlobalVersion,
			OccurredAt:    p.OccurredAt,
		})
	}

	return envelopes, nil
}

// derefEvent unwraps the pointer the registry factory returned, so loaded
// envelopes carry value events just like freshly appended ones.
func derefEvent(ev cqrs.Event) cqrs.Event {
	v := reflect.ValueOf(ev)
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		if value, ok := v.Elem().Interface().(cqrs.Event); ok {
			return value
		}
	}
	return ev
}

// Events exposes the outbound channel of committed envelopes.
func (f *FilesStore) Events() <-chan *cqrs.Envelope {
	return f.bus
}

func (f *FilesStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bus != nil {
		close(f.bus)
		f.bus = nil
	}
	return nil
}
