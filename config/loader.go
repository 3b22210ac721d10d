package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the file access the loader needs. Tests swap it out to
// control which search paths exist.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv exports the file's variables without overwriting ones already set.
func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

// Sources names the files a load used. Empty fields mean none was found.
type Sources struct {
	ConfigFile string
	EnvFile    string
}

type options struct {
	fs         FileSystem
	configFile string
	envFile    string
	envPrefix  string
	defaults   map[string]any
	sources    *Sources
}

// LoaderOption customises LoadConfig.
type LoaderOption func(*options)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(o *options) { o.fs = fs }
}

// WithConfigFile skips the search and reads path. A missing file is not an
// error; defaults and the environment still apply.
func WithConfigFile(path string) LoaderOption {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile skips the search and loads path as a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(o *options) { o.envFile = path }
}

// WithEnvPrefix requires override variables to carry prefix, so
// DIARIZE_PIPELINE_NUM_SPEAKERS sets pipeline.num_speakers.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(o *options) { o.envPrefix = prefix }
}

// WithDefault sets the value of a dotted key when neither the file nor the
// environment provides one.
func WithDefault(key string, value any) LoaderOption {
	return func(o *options) {
		if o.defaults == nil {
			o.defaults = map[string]any{}
		}
		o.defaults[key] = value
	}
}

// WithSources records which files were used into s.
func WithSources(s *Sources) LoaderOption {
	return func(o *options) { o.sources = s }
}

// SearchPaths lists the config file candidates for a binary, most specific
// first.
func SearchPaths(name string) []string {
	paths := []string{
		filepath.Join("cmd", name, "config.yml"),
		"config.yml",
		"config.yaml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "speakerkit", name+".yml"))
	}
	return paths
}

func envPaths(name string) []string {
	return []string{filepath.Join("cmd", name, ".env"), ".env." + name, ".env"}
}

func (o *options) resolve(name string) Sources {
	src := Sources{ConfigFile: o.configFile, EnvFile: o.envFile}
	if src.ConfigFile == "" {
		src.ConfigFile = o.first(SearchPaths(name))
	} else if !o.fs.Exists(src.ConfigFile) {
		src.ConfigFile = ""
	}
	if src.EnvFile == "" {
		src.EnvFile = o.first(envPaths(name))
	} else if !o.fs.Exists(src.EnvFile) {
		src.EnvFile = ""
	}
	return src
}

func (o *options) first(paths []string) string {
	for _, p := range paths {
		if o.fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg for the named binary. Precedence, highest first:
// environment variables, the config file, WithDefault values. The .env file
// only feeds the environment.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	o := options{fs: osFS{}}
	for _, opt := range opts {
		opt(&o)
	}
	src := o.resolve(name)
	if o.sources != nil {
		*o.sources = src
	}

	v := viper.New()
	for k, val := range o.defaults {
		v.SetDefault(k, val)
	}
	if src.ConfigFile != "" {
		v.SetConfigFile(src.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", src.ConfigFile, err)
		}
	}
	if src.EnvFile != "" {
		if err := o.fs.LoadEnv(src.EnvFile); err != nil {
			return fmt.Errorf("load %s: %w", src.EnvFile, err)
		}
	}

	// Only keys viper already knows from the file or defaults are bound.
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode %s config: %w", name, err)
	}
	return nil
}
