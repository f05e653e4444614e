package disk

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/fixtures"
)

func init() {
	cqrs.RegisterEventByName("TestEvent", func() cqrs.Event { return &fixtures.TestEvent{} })
}

func envelopes(streamID string, n int) []cqrs.Envelope {
	events := fixtures.NewTestEvent().WithID(streamID).WithData("payload").BuildN(n)
	out := make([]cqrs.Envelope, n)
	for i, ev := range events {
		out[i] = cqrs.Envelope{
			EventID:  uuid.New(),
			StreamID: streamID,
			Event:    ev,
			Version:  uint64(i + 1),
		}
	}
	return out
}

func collect(t *testing.T, iter *cqrs.Iterator[*cqrs.Envelope]) []*cqrs.Envelope {
	t.Helper()
	ctx := context.Background()
	var out []*cqrs.Envelope
	for iter.Next(ctx) {
		out = append(out, iter.Value())
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("iterating: %v", err)
	}
	return out
}

func TestSaveAndLoadStream(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	result, err := store.Save(ctx, envelopes("order-1", 3), cqrs.NoStream{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !result.Successful || result.NextExpectedVersion != 3 {
		t.Errorf("result = %+v", result)
	}

	iter, err := store.LoadStream(ctx, "order-1")
	if err != nil {
		t.Fatalf("LoadStream: %v", err)
	}
	loaded := collect(t, iter)
	if len(loaded) != 3 {
		t.Fatalf("loaded %d envelopes, want 3", len(loaded))
	}
	for i, env := range loaded {
		if env.Version != uint64(i+1) || env.StreamID != "order-1" {
			t.Errorf("envelope %d: version %d stream %q", i, env.Version, env.StreamID)
		}
		ev, ok := env.Event.(fixtures.TestEvent)
		if !ok {
			t.Fatalf("envelope %d: event is %T, want value TestEvent", i, env.Event)
		}
		if ev.EventType() != "TestEvent" {
			t.Errorf("envelope %d: type %q", i, ev.EventType())
		}
	}
}

func TestReopenPreservesLogAndSequence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Save(ctx, envelopes("order-1", 2), cqrs.NoStream{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store.Close()

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	iter, err := reopened.LoadStream(ctx, "order-1")
	if err != nil {
		t.Fatalf("LoadStream after reopen: %v", err)
	}
	if got := len(collect(t, iter)); got != 2 {
		t.Fatalf("loaded %d envelopes after reopen, want 2", got)
	}

	// global sequencing continues where the previous process stopped
	if _, err := reopened.Save(ctx, envelopes("order-2", 1), cqrs.NoStream{}); err != nil {
		t.Fatalf("Save after reopen: %v", err)
	}

	all, err := reopened.LoadFromAll(ctx, 0)
	if err != nil {
		t.Fatalf("LoadFromAll: %v", err)
	}
	loaded := collect(t, all)
	if len(loaded) != 3 {
		t.Fatalf("global log has %d envelopes, want 3", len(loaded))
	}
	for i, env := range loaded {
		if env.GlobalVersion != uint64(i+1) {
			t.Errorf("global version %d at position %d", env.GlobalVersion, i)
		}
	}
}

func TestRevisionGuards(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	if _, err := store.Save(ctx, envelopes("order-1", 1), cqrs.StreamExists{}); !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Errorf("StreamExists on missing stream: %v", err)
	}
	if _, err := store.Save(ctx, envelopes("order-1", 1), cqrs.NoStream{}); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	if _, err := store.Save(ctx, envelopes("order-1", 1), cqrs.NoStream{}); !errors.Is(err, cqrs.ErrStreamExists) {
		t.Errorf("NoStream on existing stream: %v", err)
	}

	_, err = store.Save(ctx, envelopes("order-1", 1), cqrs.Revision(0))
	var conflict *cqrs.StreamRevisionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected revision conflict, got %v", err)
	}
	if conflict.ExpectedRevision != 0 || conflict.ActualRevision != 1 {
		t.Errorf("conflict = %+v", conflict)
	}

	next := envelopes("order-1", 2)[1]
	next.Version = 2
	if _, err := store.Save(ctx, []cqrs.Envelope{next}, cqrs.Revision(1)); err != nil {
		t.Errorf("matching revision: %v", err)
	}
}

func TestLoadStreamErrors(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	if _, err := store.LoadStream(ctx, "missing"); !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Errorf("missing stream: %v", err)
	}

	if _, err := store.Save(ctx, envelopes("order-1", 1), cqrs.NoStream{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.LoadStreamFrom(ctx, "order-1", 5); !errors.Is(err, cqrs.ErrInvalidRevision) {
		t.Errorf("out of range version: %v", err)
	}
}

func TestEventsChannelReceivesCommits(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	if _, err := store.Save(ctx, envelopes("order-1", 2), cqrs.NoStream{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case env := <-store.Events():
			if env.StreamID != "order-1" {
				t.Errorf("event %d from stream %q", i, env.StreamID)
			}
		default:
			t.Fatalf("event %d not on channel", i)
		}
	}
}
