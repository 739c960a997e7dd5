// Package telemetry wires up process-wide observability: structured
// logging through slog and, when a collector endpoint is configured,
// OTLP trace export for the spans the library emits.
package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Config struct {
	// OtlpEndpoint is the collector's OTLP/HTTP endpoint, e.g.
	// "localhost:4318". Empty leaves tracing on the no-op provider.
	OtlpEndpoint string
	// Verbose drops the log level to debug, which includes per-request
	// retry logging.
	Verbose bool
}

type Telemetry struct {
	provider *trace.TracerProvider
}

// Shutdown flushes any pending spans. Safe to call when no exporter
// was configured.
func (t Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if config.OtlpEndpoint == "" {
		return Telemetry{}, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.OtlpEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return Telemetry{}, err
	}
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)
	return Telemetry{provider: provider}, nil
}

// SetupFromEnv is Setup with the collector endpoint taken from
// OTEL_EXPORTER_OTLP_ENDPOINT.
func SetupFromEnv(ctx context.Context, serviceName string, verbose bool) (Telemetry, error) {
	return Setup(ctx, serviceName, Config{
		OtlpEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Verbose:      verbose,
	})
}
