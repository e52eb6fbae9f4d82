// Package config provides YAML/env configuration for the rangeagg CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel     = errors.New("invalid logging level")
	ErrInvalidLogFormat    = errors.New("invalid logging format")
	ErrInvalidSampleRatio  = errors.New("telemetry sample ratio must be in [0, 1]")
	ErrInvalidMaxMemory    = errors.New("invalid memory limit")
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

// Logging formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = LogFormatText
	DefaultSampleRatio  = 1.0
	DefaultMaxMemory    = "256MiB"
	DefaultOutputFormat = OutputTable
	DefaultOutputColor  = true
)

// Config holds all rangeagg configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Output    OutputConfig    `mapstructure:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`

	// SuppressSpans names spans that are never exported, e.g. "segtree.get".
	SuppressSpans []string `mapstructure:"suppress_spans"`
}

// LimitsConfig bounds the resources a single script may claim.
type LimitsConfig struct {
	// MaxMemory caps tree storage, in humanize notation ("64MiB", "1GB").
	MaxMemory string `mapstructure:"max_memory"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Validate checks every field that has a restricted domain.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	if _, err := c.MaxMemoryBytes(); err != nil {
		return err
	}

	switch strings.ToLower(c.Output.Format) {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	return nil
}

// LogLevel parses Logging.Level ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// MaxMemoryBytes parses Limits.MaxMemory. Zero means unlimited.
func (c *Config) MaxMemoryBytes() (uint64, error) {
	if c.Limits.MaxMemory == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(c.Limits.MaxMemory)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxMemory, c.Limits.MaxMemory, err)
	}

	return n, nil
}

// Observability maps the config onto observability.Config.
// Call Validate first; an unparsable level falls back to info.
func (c *Config) Observability(version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.SuppressSpans = c.Telemetry.SuppressSpans
	obs.LogJSON = strings.EqualFold(c.Logging.Format, LogFormatJSON)

	if level, err := c.LogLevel(); err == nil {
		obs.LogLevel = level
	}

	return obs
}
