package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Resolve ResolveConfig `mapstructure:"resolve"`
	Output  OutputConfig  `mapstructure:"output"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ResolveConfig holds the defaults for a resolve call.
type ResolveConfig struct {
	// ComposeFile is resolved against Basedir when relative.
	ComposeFile string `mapstructure:"compose_file"`

	// Basedir anchors relative bind paths. It need not contain the compose file.
	Basedir string `mapstructure:"basedir"`

	// ProjectName is used to derive image names; defaults to the basedir name.
	ProjectName string `mapstructure:"project_name"`

	// UseEnvironment makes process environment variables available for substitution.
	UseEnvironment bool `mapstructure:"use_environment"`

	// PropertyFiles are dotenv files used for substitution.
	PropertyFiles []string `mapstructure:"property_files"`
}

// OutputConfig holds output configuration.
type OutputConfig struct {
	Format string `mapstructure:"format"` // json, yaml
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("resolve.compose_file", "docker-compose.yml")
	v.SetDefault("resolve.basedir", ".")
	v.SetDefault("resolve.project_name", "")
	v.SetDefault("resolve.use_environment", true)
	v.SetDefault("resolve.property_files", []string{})
	v.SetDefault("output.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// The file was named explicitly, so a missing file is an error too.
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("COMPOSERESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q: expected json or yaml", c.Output.Format)
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to w so that stdout stays reserved for resolved output.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
