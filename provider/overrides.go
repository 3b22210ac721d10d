package provider

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cast"

	apperrors "github.com/kbukum/speakerkit/errors"
)

// Overrides is the generic config map handed to a Factory. Values may be
// typed Go values or what a config decoder produced: float64 or string for
// numbers, strings such as "30s" for durations, "true" for booleans.
type Overrides map[string]any

// Into converts each present key into the variable its target points to.
// Targets must be *int, *time.Duration, *string or *bool. Absent or nil
// keys leave the target unchanged. The first unconvertible key, in sorted
// order, is returned as INVALID_INPUT.
func (o Overrides) Into(targets map[string]any) error {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		v, ok := o[key]
		if !ok || v == nil {
			continue
		}
		if err := convert(v, targets[key]); err != nil {
			return apperrors.InvalidInput(key, err.Error())
		}
	}
	return nil
}

func convert(v, target any) error {
	var err error
	switch dst := target.(type) {
	case *int:
		*dst, err = cast.ToIntE(v)
	case *time.Duration:
		*dst, err = cast.ToDurationE(v)
	case *string:
		*dst, err = cast.ToStringE(v)
	case *bool:
		*dst, err = cast.ToBoolE(v)
	default:
		return fmt.Errorf("unsupported target %T", target)
	}
	return err
}
