package diarization

import (
	"github.com/kbukum/speakerkit/cluster"
	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/validation"
)

// Config holds pipeline tuning. Detector aggressiveness is fixed at
// vad.DefaultMode.
type Config struct {
	// NumSpeakers is the number of clusters the clusterer stops at.
	NumSpeakers int `yaml:"num_speakers" mapstructure:"num_speakers" validate:"gte=1"`
	// Workers bounds parallel embedding extraction.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// DefaultConfig returns the two-speaker configuration.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.NumSpeakers <= 0 {
		c.NumSpeakers = cluster.DefaultClusters
	}
	if c.Workers <= 0 {
		c.Workers = embedding.DefaultWorkers
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
