// Package config loads commitprefix settings from a YAML file, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file name searched for when no path is given.
const FileName = ".commitprefix"

const envPrefix = "COMMITPREFIX"

// Sentinel validation errors.
var (
	ErrInvalidWorkers          = errors.New("search workers out of range")
	ErrInvalidField            = errors.New("search field must be author or committer")
	ErrInvalidProgressInterval = errors.New("progress interval must be positive")
	ErrInvalidFormat           = errors.New("output format must be text, json or yaml")
	ErrInvalidLogLevel         = errors.New("logging level must be debug, info, warn or error")
)

// Config holds all configuration for commitprefix.
type Config struct {
	Search        SearchConfig        `mapstructure:"search"`
	Repository    RepositoryConfig    `mapstructure:"repository"`
	Output        OutputConfig        `mapstructure:"output"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SearchConfig holds brute-force search settings.
type SearchConfig struct {
	Field            string        `mapstructure:"field"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	Workers          int           `mapstructure:"workers"`
	DryRun           bool          `mapstructure:"dry_run"`
}

// RepositoryConfig holds the repository location.
type RepositoryConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	NoColor  bool   `mapstructure:"no_color"`
	ShowDiff bool   `mapstructure:"show_diff"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from configPath, or from .commitprefix.yaml
// in the working or home directory when configPath is empty. A missing
// default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(FileName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Field:            DefaultField,
			ProgressInterval: DefaultProgressInterval,
			Workers:          DefaultWorkers,
			DryRun:           DefaultDryRun,
		},
		Repository: RepositoryConfig{Path: DefaultRepositoryPath},
		Output: OutputConfig{
			Format:   DefaultOutputFormat,
			NoColor:  DefaultNoColor,
			ShowDiff: DefaultShowDiff,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel, JSON: DefaultLogJSON},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("search.workers", DefaultWorkers)
	viperCfg.SetDefault("search.field", DefaultField)
	viperCfg.SetDefault("search.dry_run", DefaultDryRun)
	viperCfg.SetDefault("search.progress_interval", DefaultProgressInterval.String())

	viperCfg.SetDefault("repository.path", DefaultRepositoryPath)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.no_color", DefaultNoColor)
	viperCfg.SetDefault("output.show_diff", DefaultShowDiff)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.json", DefaultLogJSON)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.metrics_addr", "")
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Search.Workers < MinWorkers || c.Search.Workers > MaxWorkers {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidWorkers, c.Search.Workers, MinWorkers, MaxWorkers)
	}

	if c.Search.Field != "author" && c.Search.Field != "committer" {
		return fmt.Errorf("%w: %q", ErrInvalidField, c.Search.Field)
	}

	if c.Search.ProgressInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProgressInterval, c.Search.ProgressInterval)
	}

	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML}, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}
