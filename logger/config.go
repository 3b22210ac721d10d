package logger

import (
	"strings"

	"github.com/kbukum/speakerkit/validation"
)

// Config is the logging section of a binary's config file.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format      string `yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`
	// Output is stdout or stderr.
	Output    string `yaml:"output" mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills unset fields and always enables timestamps.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	// stdout carries diarization output in the CLI, so logs go to stderr.
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Validate rejects unknown levels, formats and outputs.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

func (c *Config) console() bool {
	f := strings.ToLower(c.Format)
	return f == "console" || f == "pretty"
}
