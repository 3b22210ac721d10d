package pipeline

import "context"

// Iterator provides pull-based access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value, or ok=false once the stream is exhausted.
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Pipeline is a lazy stream. Nothing runs until a terminal pulls from it.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Indexed pairs a value with its position in the source slice.
type Indexed[T any] struct {
	Index int
	Value T
}

// FromSlice streams items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// Enumerate streams items paired with their index.
func Enumerate[T any](items []T) *Pipeline[Indexed[T]] {
	indexed := make([]Indexed[T], len(items))
	for i, v := range items {
		indexed[i] = Indexed[T]{Index: i, Value: v}
	}
	return FromSlice(indexed)
}

// ForEach pulls every value and hands it to fn, stopping at the first error.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	iter := p.create(ctx)
	defer iter.Close()
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

type sliceIter[T any] struct {
	items []T
	next  int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	if it.next >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	it.next++
	return it.items[it.next-1], true, nil
}

func (it *sliceIter[T]) Close() error { return nil }
