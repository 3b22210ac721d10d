// Package sidecar embeds segments with a pretrained speaker encoder running
// as a separate HTTP service.
//
// The service receives little-endian PCM16 on POST /embed with the sample
// rate in the X-Sample-Rate header and answers {"embedding": [...]}.
package sidecar

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/httpclient"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/security"
)

const (
	serviceName    = "embedding sidecar"
	defaultTimeout = 30 * time.Second
	// DefaultDimension matches the d-vector size of common speaker encoders.
	DefaultDimension = 256
)

// Config configures the sidecar client.
type Config struct {
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Dimension int           `yaml:"dimension" mapstructure:"dimension" validate:"gte=0"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`

	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Dimension <= 0 {
		c.Dimension = DefaultDimension
	}
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Model implements embedding.Model against the sidecar.
type Model struct {
	cfg    Config
	client *httpclient.Client
}

var _ embedding.Model = (*Model)(nil)

// New returns a sidecar model.
func New(cfg Config) (*Model, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		BearerToken:    cfg.APIKey,
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(serviceName),
		TLS:            &cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	return &Model{cfg: cfg, client: client}, nil
}

// Dimension returns the configured vector length.
func (m *Model) Dimension() int { return m.cfg.Dimension }

// String identifies the sidecar by its base URL.
func (m *Model) String() string { return "sidecar:" + m.cfg.BaseURL }

// Embed posts the samples and validates the returned vector length.
func (m *Model) Embed(ctx context.Context, samples []float32, sampleRate int) (embedding.Vector, error) {
	ctx, span := observability.StartSpan(ctx, "embedding.sidecar")
	defer span.End()

	resp, err := httpclient.JSON[embedResponse](ctx, m.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/embed",
		Header: http.Header{"X-Sample-Rate": {strconv.Itoa(sampleRate)}},
		Body:   audio.PCM16Bytes(samples),
	})
	if err != nil {
		span.RecordError(err)
		return nil, httpclient.ToAppError(serviceName, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s: %s", serviceName, resp.Error)
	}
	if len(resp.Embedding) != m.cfg.Dimension {
		return nil, fmt.Errorf("%s returned %d dimensions, want %d", serviceName, len(resp.Embedding), m.cfg.Dimension)
	}
	return embedding.Vector(resp.Embedding), nil
}

// CheckHealth probes GET /health.
func (m *Model) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Probe(ctx, "embedding-sidecar", func(ctx context.Context) error {
		_, err := m.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
		return err
	})
	h.Details = map[string]string{"base_url": m.cfg.BaseURL}
	return h
}
