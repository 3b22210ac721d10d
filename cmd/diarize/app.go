package main

import (
	"context"
	"fmt"

	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/diarization/cache"
	"github.com/kbukum/speakerkit/diarization/local"
	"github.com/kbukum/speakerkit/diarization/remote"
	"github.com/kbukum/speakerkit/embedding/sidecar"
	"github.com/kbukum/speakerkit/encryption"
	"github.com/kbukum/speakerkit/logger"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/provider"
	"github.com/kbukum/speakerkit/redis"
	"github.com/kbukum/speakerkit/version"
)

// app holds everything a command needs, built once from Config.
type app struct {
	cfg      *Config
	log      *logger.Logger
	runner   diarization.Runner
	manager  *provider.Manager[diarization.Provider]
	redis    *redis.Client
	sidecar  *sidecar.Model
	shutdown []func(context.Context) error
}

func newApp(ctx context.Context, cfg *Config) (a *app, err error) {
	a = &app{cfg: cfg, log: cfg.NewLogger()}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	tel, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, cfg.Environment, a.log)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.shutdown = append(a.shutdown, tel.Shutdown)
	metrics, err := observability.NewStageMetrics(observability.Meter(observability.TracerName))
	if err != nil {
		return nil, err
	}

	opts := []diarization.Option{diarization.WithMetrics(metrics)}
	if cfg.Embedding.Model == ModelSidecar {
		if a.sidecar, err = sidecar.New(cfg.Embedding.Sidecar); err != nil {
			return nil, fmt.Errorf("embedding sidecar: %w", err)
		}
		opts = append(opts, diarization.WithModel(a.sidecar))
	}
	pipe, err := diarization.NewPipeline(cfg.Pipeline, opts...)
	if err != nil {
		return nil, err
	}
	a.runner = pipe

	if cfg.Cache.Redis.Enabled {
		if a.redis, err = redis.New(cfg.Cache.Redis, a.log); err != nil {
			return nil, err
		}
		var opts []cache.Option
		if cfg.Cache.Encryption.Enabled() {
			enc, err := encryption.New(cfg.Cache.Encryption)
			if err != nil {
				return nil, err
			}
			opts = append(opts, cache.WithEncryptor(enc))
		}
		a.runner = cache.New(pipe, a.redis, cfg.Cache.Config, opts...)
	}

	a.manager = provider.NewManager(
		provider.NewRegistry[diarization.Provider](),
		provider.NewPrioritySelector[diarization.Provider](remote.ProviderName, local.ProviderName),
		a.log,
	)
	if err := a.manager.Register(local.ProviderName, local.Factory(cfg.Local, a.runner, a.log)); err != nil {
		return nil, err
	}
	if err := a.manager.Register(remote.ProviderName, remote.Factory(cfg.Remote, a.log)); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendAuto:
		for _, name := range []string{remote.ProviderName, local.ProviderName} {
			if err := a.manager.Initialize(ctx, name, nil); err != nil {
				return nil, err
			}
		}
	default:
		if err := a.manager.Initialize(ctx, cfg.Backend, nil); err != nil {
			return nil, err
		}
		if err := a.manager.SetDefault(cfg.Backend); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// provider returns the backend chosen by configuration.
func (a *app) provider(ctx context.Context) (diarization.Provider, error) {
	return a.manager.Get(ctx)
}

// health reports the state of every initialized provider and collaborator.
func (a *app) health(ctx context.Context) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(a.cfg.Name, version.Short())
	for _, name := range a.manager.Available() {
		p, err := a.manager.GetByName(name)
		if err != nil {
			continue
		}
		if hc, ok := p.(observability.HealthChecker); ok {
			sh.AddComponent(hc.CheckHealth(ctx))
			continue
		}
		h := observability.Health{Name: name, Status: observability.HealthStatusUp}
		if !p.IsAvailable(ctx) {
			h.Status = observability.HealthStatusDown
		}
		sh.AddComponent(h)
	}
	if a.redis != nil {
		sh.AddOptional(a.redis.CheckHealth(ctx))
	}
	if a.sidecar != nil {
		sh.AddComponent(a.sidecar.CheckHealth(ctx))
	}
	return sh
}

// Close releases providers, the cache client and telemetry exporters.
func (a *app) Close(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.manager != nil {
		keep(a.manager.Close(ctx))
	}
	if a.redis != nil {
		keep(a.redis.Close())
	}
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		keep(a.shutdown[i](ctx))
	}
	return firstErr
}
