package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Parallel applies fn to each value with up to n workers. Values come out
// in completion order. The first error from fn cancels the remaining work
// and ends the stream.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n < 1 {
		n = 1
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			source := p.create(ctx)
			ctx, cancel := context.WithCancel(ctx)
			in := make(chan I)
			out := make(chan result[O], n)
			send := func(r result[O]) bool {
				select {
				case out <- r:
					return true
				case <-ctx.Done():
					return false
				}
			}

			go func() {
				defer close(in)
				for {
					val, ok, err := source.Next(ctx)
					if err != nil {
						send(result[O]{err: err})
						return
					}
					if !ok {
						return
					}
					select {
					case in <- val:
					case <-ctx.Done():
						return
					}
				}
			}()

			var wg sync.WaitGroup
			wg.Add(n)
			for range n {
				go func() {
					defer wg.Done()
					for val := range in {
						o, err := fn(ctx, val)
						if err != nil {
							send(result[O]{err: err})
							cancel()
							return
						}
						if !send(result[O]{val: o, ok: true}) {
							return
						}
					}
				}()
			}
			go func() {
				wg.Wait()
				close(out)
			}()

			return &chanIter[O]{ch: out, closer: func() error {
				cancel()
				return source.Close()
			}}
		},
	}
}

// ParallelIndexed is Parallel over enumerated values; fn sees the index
// and the index travels with the result.
func ParallelIndexed[I, O any](p *Pipeline[Indexed[I]], n int, fn func(context.Context, int, I) (O, error)) *Pipeline[Indexed[O]] {
	return Parallel(p, n, func(ctx context.Context, in Indexed[I]) (Indexed[O], error) {
		out, err := fn(ctx, in.Index, in.Value)
		return Indexed[O]{Index: in.Index, Value: out}, err
	})
}

// Gather pulls an enumerated stream back into input order. size is the
// length of the enumerated source. Slots not reached before an error keep
// their zero value.
func Gather[T any](ctx context.Context, p *Pipeline[Indexed[T]], size int) ([]T, error) {
	out := make([]T, size)
	err := ForEach(ctx, p, func(_ context.Context, it Indexed[T]) error {
		if it.Index < 0 || it.Index >= size {
			return fmt.Errorf("pipeline: index %d outside [0, %d)", it.Index, size)
		}
		out[it.Index] = it.Value
		return nil
	})
	return out, err
}

type result[T any] struct {
	val T
	ok  bool
	err error
}

type chanIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			// Workers also stop on cancellation, so a closed channel
			// is only a clean end when ctx is still live.
			var zero T
			return zero, false, ctx.Err()
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error { return it.closer() }
