package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/speakerkit/resilience"
	"github.com/kbukum/speakerkit/security"
	"github.com/kbukum/speakerkit/validation"
)

const defaultTimeout = 30 * time.Second

// Config describes one client. Components build it from their own config
// section rather than exposing it in config files.
type Config struct {
	// BaseURL prefixes relative request paths.
	BaseURL string
	// Timeout bounds a single attempt, body read included.
	Timeout time.Duration
	// BearerToken is sent as "Authorization: Bearer <token>" when set.
	BearerToken string
	// Headers are sent on every request.
	Headers map[string]string
	// MaxResponseBytes fails replies with larger bodies. Zero reads any size.
	MaxResponseBytes int64
	// TLS sets server verification and client certificates.
	TLS *security.TLSConfig
	// Retry wraps each call in resilience.Retry. Nil makes one attempt.
	Retry *resilience.RetryConfig
	// CircuitBreaker guards each attempt. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig
}

// ApplyDefaults sets the timeout when unset.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks limits and the TLS files.
func (c *Config) Validate() error {
	err := validation.New().
		Check(c.Timeout > 0, "timeout", "must be positive").
		Check(c.MaxResponseBytes >= 0, "max_response_bytes", "must not be negative").
		Err()
	if err != nil {
		return err
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	return nil
}

// DefaultRetryConfig retries transport failures, 429 and 5xx replies and
// waits at least as long as a Retry-After header asks.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	cfg.DelayHint = RetryAfter
	return &cfg
}

// DefaultCircuitBreakerConfig counts only failures that say the peer is
// unhealthy, so rejected requests never open the circuit.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = IsRetryable
	return &cfg
}
