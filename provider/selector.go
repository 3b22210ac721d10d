package provider

import (
	"context"
	"fmt"
	"strings"
)

// Selector picks one provider out of the initialized set.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// PrioritySelector returns the first provider in Priority order that
// reports as available. Names that were never initialized are skipped.
type PrioritySelector[T Provider] struct {
	Priority []string
}

// NewPrioritySelector is shorthand for a PrioritySelector over names.
func NewPrioritySelector[T Provider](names ...string) *PrioritySelector[T] {
	return &PrioritySelector[T]{Priority: names}
}

// Select returns the first available provider in priority order.
func (s *PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	var tried []string
	for _, name := range s.Priority {
		p, ok := providers[name]
		if !ok {
			continue
		}
		if p.IsAvailable(ctx) {
			return p, nil
		}
		tried = append(tried, name)
	}
	var zero T
	if len(tried) == 0 {
		return zero, fmt.Errorf("%w: none of [%s] initialized", ErrNoneAvailable, strings.Join(s.Priority, ", "))
	}
	return zero, fmt.Errorf("%w: tried %s", ErrNoneAvailable, strings.Join(tried, ", "))
}
