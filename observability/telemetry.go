package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/validation"
	"github.com/kbukum/speakerkit/version"
)

// Config configures OTLP/HTTP export. Traces and metrics share one
// collector connection.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter" mapstructure:"exporter"`
	Tracing  TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ExporterConfig locates the collector.
type ExporterConfig struct {
	// Endpoint is host:port, without scheme.
	Endpoint string            `yaml:"endpoint" mapstructure:"endpoint" validate:"required,hostname_port"`
	Insecure bool              `yaml:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `yaml:"headers" mapstructure:"headers"`
	Timeout  time.Duration     `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// TracingConfig enables span export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SampleRatio applies to root spans; children follow their parent.
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// MetricsConfig enables periodic metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// DefaultConfig exports nothing until a signal is enabled.
func DefaultConfig() Config {
	return Config{
		Exporter: ExporterConfig{Endpoint: "localhost:4318", Insecure: true, Timeout: 10 * time.Second},
		Tracing:  TracingConfig{SampleRatio: 1},
		Metrics:  MetricsConfig{Interval: 15 * time.Second},
	}
}

// ApplyDefaults fills unset fields from DefaultConfig. A zero SampleRatio
// is kept so sampling can be turned off explicitly.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Exporter.Endpoint == "" {
		c.Exporter.Endpoint = d.Exporter.Endpoint
	}
	if c.Exporter.Timeout == 0 {
		c.Exporter.Timeout = d.Exporter.Timeout
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = d.Metrics.Interval
	}
}

// Enabled reports whether any signal is exported.
func (c *Config) Enabled() bool {
	return c.Tracing.Enabled || c.Metrics.Enabled
}

// Validate checks the exporter only when something uses it.
func (c *Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.Validate(c)
}

// Telemetry owns the providers Setup installed globally.
type Telemetry struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
}

// Setup installs the enabled providers as the otel globals. The returned
// Telemetry must be shut down to flush buffered spans and points. With
// nothing enabled the globals stay no-ops.
func Setup(ctx context.Context, cfg Config, service, environment string, log *logger.Logger) (*Telemetry, error) {
	t := &Telemetry{}
	if !cfg.Enabled() {
		return t, nil
	}
	log = logger.OrNop(log).WithComponent("telemetry")

	res, err := newResource(service, environment, version.Get())
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	if cfg.Tracing.Enabled {
		if t.traces, err = newTracerProvider(ctx, cfg, res); err != nil {
			return nil, err
		}
		otel.SetTracerProvider(t.traces)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if cfg.Metrics.Enabled {
		if t.metrics, err = newMeterProvider(ctx, cfg, res); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(t.metrics)
	}

	log.Info("telemetry exporting", logger.Fields(
		"endpoint", cfg.Exporter.Endpoint,
		"traces", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled,
	))
	return t, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.traces != nil {
		errs = append(errs, t.traces.Shutdown(ctx))
	}
	if t.metrics != nil {
		errs = append(errs, t.metrics.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	e := cfg.Exporter
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(e.Endpoint)}
	if e.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(e.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(e.Headers))
	}
	if e.Timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(e.Timeout))
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.Tracing.SampleRatio)),
	), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	e := cfg.Exporter
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(e.Endpoint)}
	if e.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(e.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(e.Headers))
	}
	if e.Timeout > 0 {
		opts = append(opts, otlpmetrichttp.WithTimeout(e.Timeout))
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Metrics.Interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// sampler keeps ratio of new traces and follows the caller's decision for
// propagated ones.
func sampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

func newResource(service, environment string, build version.Info) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrServiceName, service),
		attribute.String(AttrServiceVersion, build.Version),
		attribute.String(AttrEnvironment, environment),
	}
	if build.Commit != "" {
		attrs = append(attrs, attribute.String(AttrCommit, build.Commit))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}
