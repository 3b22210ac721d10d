package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/speakerkit/logger"
)

// Manager owns the initialized providers of one kind and decides which
// one serves a call: the pinned default when set, the selector otherwise.
type Manager[T Provider] struct {
	mu          sync.RWMutex
	registry    *Registry[T]
	selector    Selector[T]
	providers   map[string]T
	defaultName string
	log         *logger.Logger
}

// NewManager creates a Manager backed by the given registry and selector.
// A nil logger discards manager events.
func NewManager[T Provider](registry *Registry[T], selector Selector[T], log *logger.Logger) *Manager[T] {
	return &Manager[T]{
		registry:  registry,
		selector:  selector,
		providers: make(map[string]T),
		log:       logger.OrNop(log).WithComponent("provider"),
	}
}

// Register adds a factory to the underlying registry.
func (m *Manager[T]) Register(name string, factory Factory[T]) error {
	if err := m.registry.Register(name, factory); err != nil {
		return err
	}
	m.log.Debug("factory registered", logger.Fields("provider", name))
	return nil
}

// Initialize builds the named provider and runs its Init hook. A provider
// whose hook fails is not kept.
func (m *Manager[T]) Initialize(ctx context.Context, name string, overrides map[string]any) error {
	instance, err := m.registry.Create(name, overrides)
	if err != nil {
		return fmt.Errorf("initialize provider %q: %w", name, err)
	}
	if initer, ok := any(instance).(Initializable); ok {
		if err := initer.Init(ctx); err != nil {
			return fmt.Errorf("init provider %q: %w", name, err)
		}
	}
	m.mu.Lock()
	m.providers[name] = instance
	m.mu.Unlock()
	m.log.Info("provider initialized", logger.Fields("provider", name))
	return nil
}

// Get returns the default provider when one is pinned, else asks the selector.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	m.mu.RLock()
	defaultName := m.defaultName
	providers := m.snapshotLocked()
	m.mu.RUnlock()

	if defaultName != "" {
		return providers[defaultName], nil
	}
	p, err := m.selector.Select(ctx, providers)
	if err != nil {
		return p, err
	}
	m.log.Debug("provider selected", logger.Fields("provider", p.Name()))
	return p, nil
}

// GetByName returns a specific initialized provider.
func (m *Manager[T]) GetByName(name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", ErrNotInitialized, name)
}

// SetDefault pins name as the provider Get returns.
func (m *Manager[T]) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotInitialized, name)
	}
	m.defaultName = name
	m.log.Debug("default provider set", logger.Fields("provider", name))
	return nil
}

// Default returns the pinned provider name, empty when the selector decides.
func (m *Manager[T]) Default() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// Available returns the sorted names of all initialized providers.
func (m *Manager[T]) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every initialized provider that implements Closeable.
// All providers are closed; the first error is returned.
func (m *Manager[T]) Close(ctx context.Context) error {
	m.mu.Lock()
	providers := m.snapshotLocked()
	m.providers = make(map[string]T)
	m.defaultName = ""
	m.mu.Unlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	for _, name := range names {
		c, ok := any(providers[name]).(Closeable)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			m.log.Warn("provider close failed", logger.ErrorFields("close", err))
			if firstErr == nil {
				firstErr = fmt.Errorf("close provider %q: %w", name, err)
			}
		}
	}
	return firstErr
}

func (m *Manager[T]) snapshotLocked() map[string]T {
	cp := make(map[string]T, len(m.providers))
	for k, v := range m.providers {
		cp[k] = v
	}
	return cp
}
