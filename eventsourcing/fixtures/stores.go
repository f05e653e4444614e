package fixtures

import (
	"context"
	"sync"

	es "github.com/terraskye/cinema-saga/eventsourcing"
)

// StoreSpy is a configurable EventStore double. It tracks calls and allows
// injecting custom behavior or failures.
type StoreSpy struct {
	mu sync.Mutex

	// Function overrides for custom behavior.
	LoadStreamFn func(ctx context.Context, id string) (*es.Iterator[*es.Envelope], error)
	SaveFn       func(ctx context.Context, events []es.Envelope, revision es.StreamState) (es.AppendResult, error)

	// Call tracking.
	LoadStreamCalls int
	SaveCalls       int
	CloseCalls      int

	// Captured arguments from the last Save.
	LastSaveEvents   []es.Envelope
	LastSaveRevision es.StreamState

	events  map[string][]*es.Envelope
	loadErr error
	saveErr error
}

func NewStoreSpy() *StoreSpy {
	return &StoreSpy{events: make(map[string][]*es.Envelope)}
}

// WithEvents pre-populates a stream with the given events, versioned
// sequentially from 1.
func (s *StoreSpy) WithEvents(streamID string, events ...es.Event) *StoreSpy {
	envelopes := EnvelopesFromEvents(events...)
	for _, env := range envelopes {
		env.StreamID = streamID
	}
	s.events[streamID] = envelopes
	return s
}

// FailOnLoad makes all Load calls fail with err.
func (s *StoreSpy) FailOnLoad(err error) *StoreSpy {
	s.loadErr = err
	return s
}

// FailOnSave makes all Save calls fail with err.
func (s *StoreSpy) FailOnSave(err error) *StoreSpy {
	s.saveErr = err
	return s
}

func (s *StoreSpy) LoadStream(ctx context.Context, id string) (*es.Iterator[*es.Envelope], error) {
	s.mu.Lock()
	s.LoadStreamCalls++
	fn := s.LoadStreamFn
	loadErr := s.loadErr
	envelopes := s.events[id]
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if len(envelopes) == 0 {
		return nil, es.ErrStreamNotFound
	}
	return es.NewSliceIterator(envelopes), nil
}

func (s *StoreSpy) LoadStreamFrom(ctx context.Context, id string, version uint64) (*es.Iterator[*es.Envelope], error) {
	iter, err := s.LoadStream(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := iter.All(ctx)
	if err != nil {
		return nil, err
	}
	if int(version) > len(all) {
		return nil, es.ErrInvalidRevision
	}
	return es.NewSliceIterator(all[version:]), nil
}

func (s *StoreSpy) LoadFromAll(ctx context.Context, version uint64) (*es.Iterator[*es.Envelope], error) {
	s.mu.Lock()
	loadErr := s.loadErr
	var all []*es.Envelope
	for _, envelopes := range s.events {
		all = append(all, envelopes...)
	}
	s.mu.Unlock()

	if loadErr != nil {
		return nil, loadErr
	}
	if int(version) < len(all) {
		all = all[version:]
	} else {
		all = nil
	}
	return es.NewSliceIterator(all), nil
}

func (s *StoreSpy) Save(ctx context.Context, events []es.Envelope, revision es.StreamState) (es.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SaveCalls++
	s.LastSaveEvents = events
	s.LastSaveRevision = revision

	if s.SaveFn != nil {
		return s.SaveFn(ctx, events, revision)
	}
	if s.saveErr != nil {
		return es.AppendResult{}, s.saveErr
	}

	for i := range events {
		env := events[i]
		s.events[env.StreamID] = append(s.events[env.StreamID], &env)
	}
	var next uint64
	if len(events) > 0 {
		next = events[len(events)-1].Version
	}
	return es.AppendResult{
		Successful:          true,
		NextExpectedVersion: next,
		Events:              events,
	}, nil
}

func (s *StoreSpy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return nil
}

// ConcurrencyConflictStore fails every Save with a revision conflict.
func ConcurrencyConflictStore(streamID string, expected, actual es.Revision) *StoreSpy {
	spy := NewStoreSpy()
	spy.SaveFn = func(ctx context.Context, events []es.Envelope, revision es.StreamState) (es.AppendResult, error) {
		return es.AppendResult{}, &es.StreamRevisionConflictError{
			Stream:           streamID,
			ExpectedRevision: expected,
			ActualRevision:   actual,
		}
	}
	return spy
}
