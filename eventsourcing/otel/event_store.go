package otel

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cqrs "github.com/terraskye/cinema-saga/eventsourcing"
)

// TelemetryStore decorates an EventStore with spans around every operation
// and counters for events appended and loaded.
type TelemetryStore struct {
	next cqrs.EventStore
}

// NewTelemetryStore wraps the given store.
func NewTelemetryStore(next cqrs.EventStore) *TelemetryStore {
	return &TelemetryStore{next: next}
}

func (s *TelemetryStore) Save(ctx context.Context, events []cqrs.Envelope, revision cqrs.StreamState) (cqrs.AppendResult, error) {
	attrs := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
	}
	if len(events) > 0 {
		attrs = append(attrs, trace.WithAttributes(
			AttrStreamID.String(events[0].StreamID),
			AttrEventCount.Int(len(events)),
			AttrRevision.String(fmt.Sprintf("%v", revision)),
		))
	}

	ctx, span := tracer().Start(ctx, "eventstore.save", attrs...)
	defer span.End()

	result, err := s.next.Save(ctx, events, revision)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var conflict *cqrs.StreamRevisionConflictError
		if cqrs.IsInitialized() && errors.As(err, &conflict) {
			cqrs.ConcurrencyConflicts.Add(ctx, 1)
		}
		return result, err
	}

	if cqrs.IsInitialized() {
		cqrs.EventsAppended.Add(ctx, int64(len(events)))
	}
	return result, nil
}

func (s *TelemetryStore) LoadStream(ctx context.Context, id string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	ctx, span := tracer().Start(ctx, "eventstore.load_stream",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrStreamID.String(id)),
	)

	iter, err := s.next.LoadStream(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	return s.countingIterator(ctx, span, iter), nil
}

func (s *TelemetryStore) LoadStreamFrom(ctx context.Context, id string, version uint64) (*cqrs.Iterator[*cqrs.Envelope], error) {
	ctx, span := tracer().Start(ctx, "eventstore.load_stream_from",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrStreamID.String(id),
			AttrRevision.String(fmt.Sprintf("%d", version)),
		),
	)

	iter, err := s.next.LoadStreamFrom(ctx, id, version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	return s.countingIterator(ctx, span, iter), nil
}

func (s *TelemetryStore) LoadFromAll(ctx context.Context, version uint64) (*cqrs.Iterator[*cqrs.Envelope], error) {
	ctx, span := tracer().Start(ctx, "eventstore.load_from_all",
		trace.WithSpanKind(trace.SpanKindClient),
	)

	iter, err := s.next.LoadFromAll(ctx, version)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	return s.countingIterator(ctx, span, iter), nil
}

func (s *TelemetryStore) Close() error {
	return s.next.Close()
}

// countingIterator wraps a loaded iterator so the span covers the full read
// and the loaded-event counter reflects events actually consumed.
func (s *TelemetryStore) countingIterator(ctx context.Context, span trace.Span, iter *cqrs.Iterator[*cqrs.Envelope]) *cqrs.Iterator[*cqrs.Envelope] {
	var loaded int64
	return cqrs.NewIteratorFunc(func(itCtx context.Context) (*cqrs.Envelope, error) {
		if iter.Next(itCtx) {
			loaded++
			return iter.Value(), nil
		}

		if cqrs.IsInitialized() && loaded > 0 {
			cqrs.EventsLoaded.Add(ctx, loaded)
		}
		span.SetAttributes(AttrEventCount.Int(int(loaded)))

		if err := iter.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}
		span.End()
		return nil, io.EOF
	})
}
