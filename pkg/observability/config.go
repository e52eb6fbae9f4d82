// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for rangeagg.
package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// AppMode identifies how the tree is being driven.
type AppMode string

const (
	// ModeCLI is the rangeagg command line.
	ModeCLI AppMode = "cli"
	// ModeEmbedded is a host application driving the script runner directly.
	ModeEmbedded AppMode = "embedded"
)

const (
	defaultServiceName        = "rangeagg"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "dev", "ci").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// SampleRatio is the trace sampling ratio. Zero samples everything.
	SampleRatio float64

	// SuppressSpans lists span names that are never exported.
	SuppressSpans []string

	// PrometheusRegistry, when set, receives every instrument through an
	// OTel Prometheus reader, independent of OTLP export.
	PrometheusRegistry *prometheus.Registry

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON switches the log handler from text to JSON.
	LogJSON bool

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config CLI startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
