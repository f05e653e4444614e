package eventsourcing

import (
	"context"
	"errors"
	"io"
)

// Iterator is a pull-based iterator over items of type T. Implement the
// producing side with NewIteratorFunc or NewSliceIterator; the producing
// function signals a clean end of the sequence with io.EOF.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
	done     bool
}

// Next advances the iterator. Returns false if the iterator is done or an
// error occurred.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}

	it.current, it.err = it.nextFunc(ctx)
	if errors.Is(it.err, io.EOF) {
		it.err = nil
		it.done = true
		return false
	}
	return it.err == nil
}

// Value returns the current item.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the last error encountered during iteration.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and returns the remaining items in a slice.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}

// NewIteratorFunc creates an Iterator from a function producing the next
// item. The function should return io.EOF when the sequence is exhausted.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// NewSliceIterator creates an Iterator over the given slice.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	index := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if index >= len(items) {
			return zero, io.EOF
		}
		item := items[index]
		index++
		return item, nil
	})
}
