// Package config provides configuration loading and validation for redblack.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/redblack/pkg/observability"
	"github.com/Sumatoshi-tech/redblack/pkg/workload"
)

// Sentinel validation errors.
var (
	ErrInvalidCount     = errors.New("workload count must be positive")
	ErrInvalidOrder     = errors.New("unknown workload order")
	ErrInvalidThreshold = errors.New("hibernation threshold must not be negative")
	ErrInvalidFormat    = errors.New("unknown render format")
	ErrInvalidDepth     = errors.New("render max depth must not be negative")
	ErrInvalidLevel     = errors.New("unknown logging level")
	ErrInvalidSampler   = errors.New("unknown trace sampler")
	ErrInvalidRatio     = errors.New("trace sample ratio must be within [0, 1]")
)

// Config file lookup.
const (
	configName = ".redblack"
	configType = "yaml"
	envPrefix  = "REDBLACK"
)

// Default configuration values.
const (
	DefaultCount                = 1000
	DefaultOrder                = "shuffled"
	DefaultSeed                 = 1
	DefaultHibernationThreshold = 0
	DefaultFormat               = "text"
	DefaultMaxDepth             = 6
	DefaultLevel                = "info"
)

// Config holds all configuration for the redblack CLI.
type Config struct {
	Workload  WorkloadConfig  `mapstructure:"workload"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Render    RenderConfig    `mapstructure:"render"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// WorkloadConfig describes generated key sequences.
type WorkloadConfig struct {
	Order string `mapstructure:"order"`
	Count int    `mapstructure:"count"`
	Seed  int64  `mapstructure:"seed"`
}

// TreeConfig holds tree-specific configuration.
type TreeConfig struct {
	// HibernationThreshold is the minimum arena size compressed after a run.
	// Zero disables compression.
	HibernationThreshold int `mapstructure:"hibernation_threshold"`

	// Check validates the whole tree after every insert.
	Check bool `mapstructure:"check"`
}

// RenderConfig controls how results are printed.
type RenderConfig struct {
	Format   string `mapstructure:"format"`
	MaxDepth int    `mapstructure:"max_depth"`
	Color    bool   `mapstructure:"color"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Sampler      string  `mapstructure:"sampler"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for .redblack.yaml in the working and home directories.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType(configType)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("workload.count", DefaultCount)
	viperCfg.SetDefault("workload.order", DefaultOrder)
	viperCfg.SetDefault("workload.seed", DefaultSeed)

	viperCfg.SetDefault("tree.check", false)
	viperCfg.SetDefault("tree.hibernation_threshold", DefaultHibernationThreshold)

	viperCfg.SetDefault("render.format", DefaultFormat)
	viperCfg.SetDefault("render.color", true)
	viperCfg.SetDefault("render.max_depth", DefaultMaxDepth)

	viperCfg.SetDefault("logging.level", DefaultLevel)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sampler", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.prometheus", false)
}

// Validate checks value ranges and enumerations.
func (config *Config) Validate() error {
	if config.Workload.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, config.Workload.Count)
	}

	_, orderErr := workload.ParseOrder(config.Workload.Order)
	if orderErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, orderErr)
	}

	if config.Tree.HibernationThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, config.Tree.HibernationThreshold)
	}

	switch config.Render.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Render.Format)
	}

	if config.Render.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, config.Render.MaxDepth)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLevel, config.Logging.Level)
	}

	if sampler := config.Telemetry.Sampler; sampler != "" && !slices.Contains(observability.SamplerNames(), sampler) {
		return fmt.Errorf("%w: %q", ErrInvalidSampler, sampler)
	}

	if ratio := config.Telemetry.SampleRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidRatio, ratio)
	}

	return nil
}
