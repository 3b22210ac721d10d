// Package remote implements diarization.Provider against a diarization
// worker over HTTP. The worker accepts {"fileUrl", "languageHint"} on
// POST /diarize and reports {"status": "healthy"} on GET /health.
package remote

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/httpclient"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/provider"
	"github.com/kbukum/speakerkit/resilience"
	"github.com/kbukum/speakerkit/security"
	"github.com/kbukum/speakerkit/util"
	"github.com/kbukum/speakerkit/validation"
)

const (
	// ProviderName is the registered name for the remote worker provider.
	ProviderName = "remote"

	serviceName    = "diarization worker"
	healthyStatus  = "healthy"
	defaultURL     = "http://localhost:8000"
	defaultTimeout = 300 * time.Second
)

// Config holds configuration for the remote provider.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// MaxAttempts retries retryable failures. 1 disables retry.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	// TLS configures verification of an https worker.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
}

// Provider implements diarization.Provider using the worker HTTP API.
type Provider struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewProvider creates a new remote diarization provider.
func NewProvider(cfg Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}

	log = logger.OrNop(log).WithComponent(ProviderName)

	breaker := httpclient.DefaultCircuitBreakerConfig(serviceName)
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("worker circuit changed", logger.Fields("from", from.String(), "to", to.String()))
	}
	hc := httpclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		BearerToken:    cfg.APIKey,
		CircuitBreaker: breaker,
		TLS:            &cfg.TLS,
	}
	if cfg.MaxAttempts > 1 {
		retry := httpclient.DefaultRetryConfig()
		retry.MaxAttempts = cfg.MaxAttempts
		retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Debug("retrying worker call", logger.Fields("attempt", attempt, "delay_ms", delay.Milliseconds(), logger.FieldError, err.Error()))
		}
		hc.Retry = retry
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, err
	}
	p := &Provider{cfg: cfg, client: client, log: log}
	fields := logger.Fields("base_url", cfg.BaseURL, "max_attempts", cfg.MaxAttempts)
	if cfg.APIKey != "" {
		fields["api_key"] = util.MaskSecret(cfg.APIKey, 4)
	}
	p.log.Debug("remote provider configured", fields)
	return p, nil
}

// Factory returns a provider.Factory that creates remote providers from
// base overlaid with a generic config map. Recognised keys: base_url,
// timeout, api_key, max_attempts.
func Factory(base Config, log *logger.Logger) provider.Factory[diarization.Provider] {
	return func(cfg map[string]any) (diarization.Provider, error) {
		rc := base
		err := provider.Overrides(cfg).Into(map[string]any{
			"base_url":     &rc.BaseURL,
			"timeout":      &rc.Timeout,
			"api_key":      &rc.APIKey,
			"max_attempts": &rc.MaxAttempts,
		})
		if err != nil {
			return nil, err
		}
		return NewProvider(rc, log)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the circuit is closed and the worker
// answers its health check.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if !p.client.Available() {
		return false
	}
	return p.CheckHealth(ctx).Status == observability.HealthStatusUp
}

// CheckHealth probes GET /health.
func (p *Provider) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name: "diarization-worker",
		Details: map[string]string{
			"url":     p.client.BaseURL(),
			"circuit": p.client.CircuitState().String(),
		},
	}
	hr, err := httpclient.GetJSON[healthResponse](ctx, p.client, "/health")
	switch {
	case err != nil:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	case hr.Status != healthyStatus:
		h.Status = observability.HealthStatusDegraded
		h.Message = "worker reported status " + hr.Status
	default:
		h.Status = observability.HealthStatusUp
		if hr.Service != "" {
			h.Details["service"] = hr.Service
		}
	}
	return h
}

// Diarize forwards the request to the worker.
func (p *Provider) Diarize(ctx context.Context, req diarization.DiarizationRequest) (*diarization.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProvider)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrProvider, ProviderName))

	start := time.Now()
	result, err := httpclient.PostJSON[diarization.Result](ctx, p.client, "/diarize", req)
	if err != nil {
		appErr := httpclient.ToAppError(serviceName, err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Error())
		p.log.WithError(appErr).Warn("remote diarize failed", logger.Fields(
			"location", req.FileURL,
			"status", httpclient.StatusCode(err),
		))
		return nil, appErr
	}

	if result.DiarizedSegments == nil {
		result.DiarizedSegments = []diarization.Segment{}
	}
	p.log.Debug("remote diarize completed", logger.Fields(
		"segments", len(result.DiarizedSegments),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return &result, nil
}
