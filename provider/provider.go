package provider

import (
	"context"
	"errors"
)

var (
	// ErrNotRegistered is returned when no factory exists for a name.
	ErrNotRegistered = errors.New("provider not registered")
	// ErrNotInitialized is returned for a name that was never initialized.
	ErrNotInitialized = errors.New("provider not initialized")
	// ErrNoneAvailable is returned when no candidate reports as available.
	ErrNoneAvailable = errors.New("no provider available")
)

// Provider is the base interface all backends implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance. The map overlays whatever base
// configuration the factory closed over; nil keeps the base as is.
type Factory[T Provider] func(overrides map[string]any) (T, error)
