// Package local serves diarization in-process: the request location is
// fetched, converted to canonical WAV, decoded and run through a
// diarization.Runner, all inside a bounded number of concurrent slots.
package local

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/speakerkit/audio"
	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/provider"
	"github.com/kbukum/speakerkit/resilience"
	"github.com/kbukum/speakerkit/source"
)

const (
	// ProviderName is the registered name for the in-process provider.
	ProviderName = "local"

	defaultTimeout       = 10 * time.Minute
	defaultMaxConcurrent = 2
)

// Config holds configuration for the local provider.
type Config struct {
	// MaxConcurrent bounds simultaneous Diarize calls.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait is how long a call waits for a free slot. Zero fails at once.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
	// Timeout bounds one call from fetch to result.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// TempDir is the parent of per-call workspaces.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`

	Fetch  source.FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	FFmpeg source.FFmpegConfig `yaml:"ffmpeg" mapstructure:"ffmpeg"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Fetch.ApplyDefaults()
}

// AudioLoader resolves a location to a canonical buffer.
type AudioLoader interface {
	Load(ctx context.Context, location string, log *logger.Logger) (*audio.Buffer, error)
}

// Provider implements diarization.Provider in-process.
type Provider struct {
	cfg      Config
	loader   AudioLoader
	runner   diarization.Runner
	bulkhead *resilience.Bulkhead
	log      *logger.Logger
}

// New builds a provider that loads audio with the source package and
// diarizes it with runner.
func New(cfg Config, runner diarization.Runner, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	fetcher, err := source.NewFetcher(cfg.Fetch, log)
	if err != nil {
		return nil, err
	}
	loader := &source.Loader{
		Fetcher:   fetcher,
		Converter: source.NewFFmpeg(cfg.FFmpeg, log),
		TempDir:   cfg.TempDir,
	}
	return NewWithLoader(cfg, loader, runner, log), nil
}

// NewWithLoader builds a provider over an explicit loader.
func NewWithLoader(cfg Config, loader AudioLoader, runner diarization.Runner, log *logger.Logger) *Provider {
	cfg.ApplyDefaults()
	bh := resilience.DefaultBulkheadConfig(ProviderName)
	bh.MaxConcurrent = cfg.MaxConcurrent
	bh.MaxWait = cfg.MaxWait
	return &Provider{
		cfg:      cfg,
		loader:   loader,
		runner:   runner,
		bulkhead: resilience.NewBulkhead(bh),
		log:      logger.OrNop(log).WithComponent(ProviderName),
	}
}

// Factory returns a provider.Factory that creates local providers from
// base overlaid with a generic config map. Recognised keys: max_concurrent,
// max_wait, timeout, temp_dir, allow_local, ffmpeg. Values decoded from
// config files ("30s", 4.0) are converted.
func Factory(base Config, runner diarization.Runner, log *logger.Logger) provider.Factory[diarization.Provider] {
	return func(cfg map[string]any) (diarization.Provider, error) {
		lc := base
		err := provider.Overrides(cfg).Into(map[string]any{
			"max_concurrent": &lc.MaxConcurrent,
			"max_wait":       &lc.MaxWait,
			"timeout":        &lc.Timeout,
			"temp_dir":       &lc.TempDir,
			"allow_local":    &lc.Fetch.AllowLocal,
			"ffmpeg":         &lc.FFmpeg.Binary,
		})
		if err != nil {
			return nil, err
		}
		return New(lc, runner, log)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether a slot is free and the converter is installed.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.CheckHealth(ctx).Status == observability.HealthStatusUp
}

// CheckHealth reports converter presence and slot usage. A provider with
// every slot taken is degraded; one without a converter is down.
func (p *Provider) CheckHealth(_ context.Context) observability.Health {
	st := p.bulkhead.Stats()
	h := observability.Health{
		Name:   ProviderName,
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"in_use":         strconv.Itoa(st.InUse),
			"max_concurrent": strconv.Itoa(st.MaxConcurrent),
			"rejected":       strconv.FormatInt(st.Rejected, 10),
		},
	}
	switch {
	case !p.converterAvailable():
		h.Status = observability.HealthStatusDown
		h.Message = "audio converter not installed"
	case st.InUse >= st.MaxConcurrent:
		h.Status = observability.HealthStatusDegraded
		h.Message = "all slots busy"
	}
	return h
}

func (p *Provider) converterAvailable() bool {
	if l, ok := p.loader.(*source.Loader); ok {
		if c, ok := l.Converter.(interface{ Available() bool }); ok {
			return c.Available()
		}
	}
	return true
}

// Diarize loads req.FileURL and runs the pipeline on it.
func (p *Provider) Diarize(ctx context.Context, req diarization.DiarizationRequest) (*diarization.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProvider)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrProvider, ProviderName))

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	log := p.log.WithContext(ctx)
	result, err := resilience.ExecuteWithResult(p.bulkhead, ctx, func() (*diarization.Result, error) {
		buf, err := p.loader.Load(ctx, req.FileURL, log)
		if err != nil {
			return nil, err
		}
		return p.runner.Run(ctx, buf, log)
	})
	if err != nil {
		err = p.mapError(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Warn("diarize failed", logger.Fields("location", req.FileURL))
		return nil, err
	}
	return result, nil
}

func (p *Provider) mapError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, resilience.ErrBulkheadFull), stderrors.Is(err, resilience.ErrBulkheadTimeout):
		return errors.Busy(ProviderName).WithCause(err)
	case errors.IsAppError(err):
		return err
	case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return errors.Timeout("diarize").WithCause(err)
	default:
		return errors.Internal(err)
	}
}

// Close is a no-op; workspaces are released per call.
func (p *Provider) Close(_ context.Context) error { return nil }
