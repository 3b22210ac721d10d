package main

import (
	"fmt"

	"github.com/kbukum/speakerkit/config"
	"github.com/kbukum/speakerkit/diarization"
	"github.com/kbukum/speakerkit/diarization/cache"
	"github.com/kbukum/speakerkit/diarization/local"
	"github.com/kbukum/speakerkit/diarization/remote"
	"github.com/kbukum/speakerkit/embedding/sidecar"
	"github.com/kbukum/speakerkit/encryption"
	"github.com/kbukum/speakerkit/observability"
	"github.com/kbukum/speakerkit/redis"
	"github.com/kbukum/speakerkit/validation"
)

const serviceName = "diarize"

// Backend names.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
	BackendAuto   = "auto"
)

// Embedding model names.
const (
	ModelSpectral = "spectral"
	ModelSidecar  = "sidecar"
)

// Config is the diarize CLI configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the provider: local, remote, or auto (remote first,
	// falling back to local when the worker is unavailable).
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=local remote auto"`
	// Output is the result encoding.
	Output string `yaml:"output" mapstructure:"output" validate:"oneof=json yaml"`
	// Concurrency bounds locations diarized at once by the run command.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=1"`

	Pipeline  diarization.Config   `yaml:"pipeline" mapstructure:"pipeline"`
	Embedding EmbeddingConfig      `yaml:"embedding" mapstructure:"embedding"`
	Local     local.Config         `yaml:"local" mapstructure:"local"`
	Remote    remote.Config        `yaml:"remote" mapstructure:"remote"`
	Cache     CacheConfig          `yaml:"cache" mapstructure:"cache"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry" validate:"-"`
}

// EmbeddingConfig selects the speaker embedding model.
type EmbeddingConfig struct {
	Model   string         `yaml:"model" mapstructure:"model" validate:"oneof=spectral sidecar"`
	Sidecar sidecar.Config `yaml:"sidecar" mapstructure:"sidecar" validate:"-"`
}

// CacheConfig configures the Redis result cache. It is active when
// Redis.Enabled is set.
type CacheConfig struct {
	cache.Config `yaml:",inline" mapstructure:",squash"`
	Redis        redis.Config      `yaml:"redis" mapstructure:"redis"`
	Encryption   encryption.Config `yaml:"encryption" mapstructure:"encryption"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.Output == "" {
		c.Output = "json"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = ModelSpectral
	}
	c.Pipeline.ApplyDefaults()
	c.Embedding.Sidecar.ApplyDefaults()
	c.Local.ApplyDefaults()
	c.Remote.ApplyDefaults()
	c.Cache.Config.ApplyDefaults()
	if c.Cache.Redis.Enabled {
		c.Cache.Redis.ApplyDefaults()
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Embedding.Model == ModelSidecar {
		if err := validation.Validate(&c.Embedding.Sidecar); err != nil {
			return fmt.Errorf("embedding.sidecar: %w", err)
		}
	}
	if err := c.Cache.Redis.Validate(); err != nil {
		return fmt.Errorf("cache.redis: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// loadConfig reads path (or the default search locations when empty),
// environment overrides and defaults.
func loadConfig(path string) (*Config, error) {
	opts := []config.LoaderOption{
		config.WithDefault("local.fetch.allow_local", true),
	}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
