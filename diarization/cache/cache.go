// Package cache wraps a diarization.Runner with a Redis result cache keyed
// by the runner's signature and the SHA-256 fingerprint of the canonical
// samples. Cache failures are logged and never fail a run.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/encryption"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/redis"
)

const (
	// DebugCacheHit marks results served from the cache.
	DebugCacheHit = "cache_hit"

	defaultKeyPrefix = "speakerkit:diarization"
	defaultTTL       = 24 * time.Hour
)

// Config configures the result cache.
type Config struct {
	// KeyPrefix namespaces cache entries. Bump it when a release changes
	// pipeline behaviour without changing the runner's signature.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	// TTL is the entry lifetime. Negative disables expiry.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultKeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = defaultTTL
	}
}

// Runner serves repeated buffers from Redis and delegates misses.
type Runner struct {
	next  diarization.Runner
	store *redis.Store[diarization.Result]
}

var _ diarization.Runner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*options)

type options struct {
	store   []redis.StoreOption
	variant string
}

// Signer is implemented by runners whose output depends on settings beyond
// the audio. diarization.Pipeline is one.
type Signer interface {
	Signature() string
}

// WithVariant namespaces entries by v instead of the runner's signature.
func WithVariant(v string) Option {
	return func(o *options) { o.variant = v }
}

// WithEncryptor seals cached results with enc.
func WithEncryptor(enc encryption.Encryptor) Option {
	return func(o *options) {
		if enc != nil {
			o.store = append(o.store, redis.WithCipher(enc))
		}
	}
}

// New wraps next with a cache on client. When next is a Signer its
// signature joins the key prefix, so runners configured differently never
// share entries.
func New(next diarization.Runner, client *redis.Client, cfg Config, opts ...Option) *Runner {
	cfg.ApplyDefaults()
	var o options
	if s, ok := next.(Signer); ok {
		o.variant = s.Signature()
	}
	for _, opt := range opts {
		opt(&o)
	}
	namespace := cfg.KeyPrefix
	if o.variant != "" {
		namespace += ":" + o.variant
	}
	storeOpts := append([]redis.StoreOption{redis.WithTTL(cfg.TTL)}, o.store...)
	return &Runner{
		next:  next,
		store: redis.NewStore[diarization.Result](client, namespace, storeOpts...),
	}
}

// Key returns the Redis key holding the result for buf.
func (r *Runner) Key(buf *audio.Buffer) string {
	return r.store.Key(buf.Fingerprint())
}

// Run returns the cached result for buf or runs next and stores its result.
// Failed runs are not cached.
func (r *Runner) Run(ctx context.Context, buf *audio.Buffer, log *logger.Logger) (*diarization.Result, error) {
	if buf == nil {
		return r.next.Run(ctx, buf, log)
	}
	clog := logger.OrNop(log).WithComponent("cache")
	key := buf.Fingerprint()

	cached, found, err := r.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.ErrCorrupt):
		clog.Warn("evicting unreadable cache entry", logger.ErrorFields("load", err))
		if err := r.store.Delete(ctx, key); err != nil {
			clog.Warn("cache evict failed", logger.ErrorFields("delete", err))
		}
	case err != nil:
		clog.Warn("cache lookup failed", logger.ErrorFields("load", err))
	case found:
		if cached.Debug == nil {
			cached.Debug = make(map[string]any)
		}
		if cached.DiarizedSegments == nil {
			cached.DiarizedSegments = []diarization.Segment{}
		}
		cached.Debug[DebugCacheHit] = true
		clog.Debug("cache hit", logger.Fields("key", key))
		return &cached, nil
	}

	result, err := r.next.Run(ctx, buf, log)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, key, *result); err != nil {
		clog.Warn("cache store failed", logger.ErrorFields("save", err))
	}
	return result, nil
}
