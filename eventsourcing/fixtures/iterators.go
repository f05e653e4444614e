package fixtures

import (
	"context"
	"io"
	"sync/atomic"

	es "github.com/terraskye/cinema-saga/eventsourcing"
)

// EmptyIterator returns an iterator that yields nothing.
func EmptyIterator() *es.Iterator[*es.Envelope] {
	return es.NewSliceIterator[*es.Envelope](nil)
}

// FailingIterator returns an iterator whose first Next fails with err.
func FailingIterator(err error) *es.Iterator[*es.Envelope] {
	return es.NewIteratorFunc(func(ctx context.Context) (*es.Envelope, error) {
		return nil, err
	})
}

// FailAfterNIterator yields the first n envelopes, then fails with err.
func FailAfterNIterator(envelopes []*es.Envelope, n int, err error) *es.Iterator[*es.Envelope] {
	index := 0
	return es.NewIteratorFunc(func(ctx context.Context) (*es.Envelope, error) {
		if index >= n {
			return nil, err
		}
		if index >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[index]
		index++
		return env, nil
	})
}

// CountingIterator yields envelopes while counting how many were consumed.
type CountingIterator struct {
	envelopes []*es.Envelope
	consumed  atomic.Int64
}

func NewCountingIterator(envelopes []*es.Envelope) *CountingIterator {
	return &CountingIterator{envelopes: envelopes}
}

// Consumed reports how many envelopes have been pulled so far.
func (c *CountingIterator) Consumed() int {
	return int(c.consumed.Load())
}

func (c *CountingIterator) Iterator() *es.Iterator[*es.Envelope] {
	index := 0
	return es.NewIteratorFunc(func(ctx context.Context) (*es.Envelope, error) {
		if index >= len(c.envelopes) {
			return nil, io.EOF
		}
		env := c.envelopes[index]
		index++
		c.consumed.Add(1)
		return env, nil
	})
}
