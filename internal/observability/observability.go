// Package observability wires logging, metrics, and tracing for the service.
package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	coursemetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/course"
	relaymetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/relay"
	roundmetrics "github.com/fairway-collective/roundsync/internal/observability/metrics/round"
)

// Config selects log verbosity and names the deployment.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
}

// Provider carries the process-wide logger.
type Provider struct {
	Logger *slog.Logger
}

// Registry carries the per-module metric recorders, the tracer, and the
// prometheus registry backing the /metrics endpoint.
type Registry struct {
	RoundMetrics  roundmetrics.RoundMetrics
	CourseMetrics coursemetrics.CourseMetrics
	RelayMetrics  relaymetrics.RelayMetrics
	Tracer        trace.Tracer
	Prometheus    *prometheus.Registry
}

// Observability bundles the provider and registry handed to every module.
type Observability struct {
	Provider Provider
	Registry Registry
}

// Init builds the production observability stack: a JSON slog logger on
// stdout, prometheus recorders on a fresh registry, and the globally
// configured otel tracer.
func Init(cfg Config) Observability {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.LogLevel),
	})).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Provider: Provider{Logger: logger},
		Registry: Registry{
			RoundMetrics:  roundmetrics.NewRoundMetrics(registry),
			CourseMetrics: coursemetrics.NewCourseMetrics(registry),
			RelayMetrics:  relaymetrics.NewRelayMetrics(registry),
			Tracer:        otel.Tracer(cfg.ServiceName),
			Prometheus:    registry,
		},
	}
}

// NewNoop returns an observability stack that discards everything. Tests use
// it so service construction stays one line.
func NewNoop() Observability {
	return Observability{
		Provider: Provider{Logger: slog.New(slog.DiscardHandler)},
		Registry: Registry{
			RoundMetrics:  roundmetrics.NoOpMetrics{},
			CourseMetrics: coursemetrics.NoOpMetrics{},
			RelayMetrics:  relaymetrics.NoOpMetrics{},
			Tracer:        noop.NewTracerProvider().Tracer("test"),
			Prometheus:    prometheus.NewRegistry(),
		},
	}
}

// ParseLogLevel maps a config string to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
