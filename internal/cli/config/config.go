// Package config loads pystrip settings from defaults, a YAML file, the
// environment and command-line flags.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/jrandolf/pystrip/internal/cache"
	"github.com/jrandolf/pystrip/internal/source"
	"github.com/jrandolf/pystrip/internal/unit"
	"github.com/jrandolf/pystrip/internal/watch"
)

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "PYSTRIP_"

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// configNames are looked up in the working directory, then the git root.
var configNames = []string{"pystrip.yaml", "pystrip.yml", ".pystrip.yaml", ".pystrip.yml"}

// Config holds all pystrip settings.
type Config struct {
	KeepDocstrings bool          `koanf:"keep_docstrings"`
	Concurrency    int           `koanf:"concurrency"`
	CacheFile      string        `koanf:"cache_file"`
	Verbose        bool          `koanf:"verbose"`
	LogFormat      string        `koanf:"log_format"`
	Debounce       time.Duration `koanf:"debounce"`
	Banner         string        `koanf:"banner"`
	Extensions     []string      `koanf:"extensions"`
	Formatter      string        `koanf:"formatter"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	return map[string]any{
		"keep_docstrings": false,
		"concurrency":     0,
		"cache_file":      cache.DefaultFileName,
		"verbose":         false,
		"log_format":      LogFormatText,
		"debounce":        watch.DefaultDebounce.String(),
		"banner":          unit.Banner,
		"extensions":      source.DefaultExtensions,
		"formatter":       "",
	}
}

// findConfigFile returns explicit if set, otherwise the first known config
// name found in dirs.
func findConfigFile(explicit string, dirs ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

// Load builds a Config. Precedence (highest to lowest): flags > env vars >
// config file > defaults. Only flags the user actually set take part.
func Load(cfgFile string, flags *pflag.FlagSet, searchDirs ...string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile, searchDirs...)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: PYSTRIP_KEEP_DOCSTRINGS -> keep_docstrings
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "extensions" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.ToLower(ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Mode returns the transform the configuration asks for.
func (c *Config) Mode() unit.Mode {
	return unit.ModeFor(c.KeepDocstrings)
}

// FormatterCommand splits Formatter into a command and its arguments.
func (c *Config) FormatterCommand() []string {
	return strings.Fields(c.Formatter)
}

// NewLogger builds the process logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type configKey struct{}

type loggerKey struct{}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from ctx, falling back to defaults.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg, err := Load("", nil)
	if err != nil {
		return &Config{LogFormat: LogFormatText, Banner: unit.Banner, CacheFile: cache.DefaultFileName}
	}
	return cfg
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger retrieves the logger from ctx, falling back to a discarding one.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
