package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrCorrupt marks a stored value that could not be opened or decoded.
// Callers usually delete the entry and recompute it.
var ErrCorrupt = errors.New("corrupt entry")

// Cipher seals values before they are written and opens them on read.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Store keeps JSON-encoded values of type V under "<namespace>:<id>".
type Store[V any] struct {
	client    *Client
	namespace string
	ttl       time.Duration
	cipher    Cipher
}

// StoreOption configures a Store.
type StoreOption func(*storeSettings)

type storeSettings struct {
	ttl    time.Duration
	cipher Cipher
}

// WithTTL expires entries d after they are written. Zero keeps them.
func WithTTL(d time.Duration) StoreOption {
	return func(s *storeSettings) { s.ttl = max(d, 0) }
}

// WithCipher stores values sealed by c.
func WithCipher(c Cipher) StoreOption {
	return func(s *storeSettings) { s.cipher = c }
}

// NewStore returns a Store over client. An empty namespace uses ids as
// keys unchanged.
func NewStore[V any](client *Client, namespace string, opts ...StoreOption) *Store[V] {
	var s storeSettings
	for _, opt := range opts {
		opt(&s)
	}
	return &Store[V]{client: client, namespace: namespace, ttl: s.ttl, cipher: s.cipher}
}

// Key returns the Redis key for id.
func (s *Store[V]) Key(id string) string {
	if s.namespace == "" {
		return id
	}
	return s.namespace + ":" + id
}

// Get reads id. A missing key reports found false with a nil error.
// Undecodable values return an error wrapping ErrCorrupt.
func (s *Store[V]) Get(ctx context.Context, id string) (v V, found bool, err error) {
	raw, err := s.client.Get(ctx, s.Key(id))
	if errors.Is(err, goredis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get %s: %w", s.Key(id), err)
	}

	if s.cipher != nil {
		if raw, err = s.cipher.Decrypt(raw); err != nil {
			return v, false, fmt.Errorf("open %s: %w: %w", s.Key(id), ErrCorrupt, err)
		}
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w: %w", s.Key(id), ErrCorrupt, err)
	}
	return v, true, nil
}

// Put writes v under id with the store TTL, replacing any previous value.
func (s *Store[V]) Put(ctx context.Context, id string, v V) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Key(id), err)
	}
	value := string(data)
	if s.cipher != nil {
		if value, err = s.cipher.Encrypt(value); err != nil {
			return fmt.Errorf("seal %s: %w", s.Key(id), err)
		}
	}
	if err := s.client.Set(ctx, s.Key(id), value, s.ttl); err != nil {
		return fmt.Errorf("put %s: %w", s.Key(id), err)
	}
	return nil
}

// Delete removes id. Deleting a missing key is not an error.
func (s *Store[V]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.Key(id)); err != nil {
		return fmt.Errorf("delete %s: %w", s.Key(id), err)
	}
	return nil
}
