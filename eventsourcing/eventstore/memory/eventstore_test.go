package memory_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
	"github.com/terraskye/cinema-saga/eventsourcing/eventstore/memory"
)

// Test event types

type showOpened struct {
	ShowID string
	Title  string
}

func (e showOpened) AggregateID() string { return e.ShowID }
func (e showOpened) EventType() string   { return "showOpened" }

type seatTaken struct {
	ShowID string
	Seat   int
}

func (e seatTaken) AggregateID() string { return e.ShowID }
func (e seatTaken) EventType() string   { return "seatTaken" }

func newEnvelope(streamID string, version uint64, event cqrs.Event) cqrs.Envelope {
	return cqrs.Envelope{
		EventID:    uuid.New(),
		StreamID:   streamID,
		Event:      event,
		Version:    version,
		OccurredAt: time.Now(),
		Metadata:   map[string]any{},
	}
}

func collectAll(t *testing.T, iter *cqrs.Iterator[*cqrs.Envelope]) []*cqrs.Envelope {
	t.Helper()
	results, err := iter.All(context.Background())
	if err != nil {
		t.Fatalf("iterator error: %v", err)
	}
	return results
}

func TestSave_EmptyBatch(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	result, err := store.Save(context.Background(), []cqrs.Envelope{}, cqrs.Any{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !result.Successful {
		t.Error("expected successful result")
	}
}

func TestSave_SingleEvent(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	env := newEnvelope("show-1", 1, showOpened{ShowID: "show-1", Title: "Pulp Fiction"})
	result, err := store.Save(context.Background(), []cqrs.Envelope{env}, cqrs.Any{})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.NextExpectedVersion != 1 {
		t.Errorf("expected NextExpectedVersion 1, got %d", result.NextExpectedVersion)
	}
	if len(result.Events) != 1 {
		t.Errorf("expected 1 persisted event, got %d", len(result.Events))
	}
}

func TestSave_MixedStreamsRejected(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	events := []cqrs.Envelope{
		newEnvelope("show-1", 1, showOpened{ShowID: "show-1"}),
		newEnvelope("show-2", 1, showOpened{ShowID: "show-2"}),
	}

	_, err := store.Save(context.Background(), events, cqrs.Any{})

	if !errors.Is(err, cqrs.ErrInvalidEventBatch) {
		t.Fatalf("expected ErrInvalidEventBatch, got %v", err)
	}
}

func TestSave_NoStreamGuard(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()
	ctx := context.Background()

	first := newEnvelope("show-1", 1, showOpened{ShowID: "show-1"})
	if _, err := store.Save(ctx, []cqrs.Envelope{first}, cqrs.NoStream{}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	again := newEnvelope("show-1", 1, showOpened{ShowID: "show-1"})
	_, err := store.Save(ctx, []cqrs.Envelope{again}, cqrs.NoStream{})
	if !errors.Is(err, cqrs.ErrStreamExists) {
		t.Fatalf("expected ErrStreamExists, got %v", err)
	}
}

func TestSave_StreamExistsGuard(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	env := newEnvelope("show-1", 1, seatTaken{ShowID: "show-1", Seat: 3})
	_, err := store.Save(context.Background(), []cqrs.Envelope{env}, cqrs.StreamExists{})
	if !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestSave_RevisionConflict(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()
	ctx := context.Background()

	first := newEnvelope("show-1", 1, showOpened{ShowID: "show-1"})
	if _, err := store.Save(ctx, []cqrs.Envelope{first}, cqrs.Revision(0)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	stale := newEnvelope("show-1", 1, seatTaken{ShowID: "show-1", Seat: 1})
	_, err := store.Save(ctx, []cqrs.Envelope{stale}, cqrs.Revision(0))

	var conflict *cqrs.StreamRevisionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StreamRevisionConflictError, got %v", err)
	}
	if conflict.ActualRevision != 1 {
		t.Errorf("expected actual revision 1, got %d", conflict.ActualRevision)
	}
}

func TestLoadStream_MissingStream(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	_, err := store.LoadStream(context.Background(), "nope")
	if !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestLoadStreamFrom_Offset(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()
	ctx := context.Background()

	events := []cqrs.Envelope{
		newEnvelope("show-1", 1, showOpened{ShowID: "show-1"}),
		newEnvelope("show-1", 2, seatTaken{ShowID: "show-1", Seat: 1}),
		newEnvelope("show-1", 3, seatTaken{ShowID: "show-1", Seat: 2}),
	}
	if _, err := store.Save(ctx, events, cqrs.Any{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	iter, err := store.LoadStreamFrom(ctx, "show-1", 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got := collectAll(t, iter)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Version != 2 {
		t.Errorf("expected first version 2, got %d", got[0].Version)
	}
}

func TestLoadFromAll_GlobalOrder(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()
	ctx := context.Background()

	a := newEnvelope("show-1", 1, showOpened{ShowID: "show-1"})
	b := newEnvelope("show-2", 1, showOpened{ShowID: "show-2"})
	if _, err := store.Save(ctx, []cqrs.Envelope{a}, cqrs.Any{}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := store.Save(ctx, []cqrs.Envelope{b}, cqrs.Any{}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	iter, err := store.LoadFromAll(ctx, 0)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	got := collectAll(t, iter)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].StreamID != "show-1" || got[1].StreamID != "show-2" {
		t.Errorf("global order broken: %q, %q", got[0].StreamID, got[1].StreamID)
	}
	if got[0].GlobalVersion != 1 || got[1].GlobalVersion != 2 {
		t.Errorf("global versions wrong: %d, %d", got[0].GlobalVersion, got[1].GlobalVersion)
	}
}

func TestEvents_RelayChannel(t *testing.T) {
	store := memory.NewMemoryStore(10)
	defer store.Close()

	env := newEnvelope("show-1", 1, showOpened{ShowID: "show-1"})
	if _, err := store.Save(context.Background(), []cqrs.Envelope{env}, cqrs.Any{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case relayed := <-store.Events():
		if relayed.StreamID != "show-1" {
			t.Errorf("expected show-1, got %q", relayed.StreamID)
		}
	case <-time.After(time.Second):
		t.Fatal("no envelope relayed")
	}
}

func TestSave_LogsDroppedRelayEnvelopes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store := memory.NewMemoryStore(1)
	defer store.Close()

	envelopes := []cqrs.Envelope{
		newEnvelope("show-1", 1, showOpened{ShowID: "show-1", Title: "Dune"}),
		newEnvelope("show-1", 2, seatTaken{ShowID: "show-1", Seat: 3}),
	}
	result, err := store.Save(context.Background(), envelopes, cqrs.Any{})
	if err != nil || !result.Successful {
		t.Fatalf("Save: %v (successful=%v)", err, result.Successful)
	}

	// buffer of one: the second committed envelope cannot be relayed
	if !strings.Contains(buf.String(), "dropping envelope") {
		t.Errorf("expected a drop warning, log output: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "show-1") {
		t.Errorf("drop warning should name the stream, got: %q", buf.String())
	}
}
