package tracer

import (
	"context"

	"vibez-studio/internal/config"
	"vibez-studio/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Shutdown flushes pending spans and stops the exporter.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs the global tracer provider used by the otelfiber middleware.
// When tracing is disabled, or the exporter cannot be built, the global
// no-op provider stays in place and the returned Shutdown does nothing.
func Init(cfg config.TracingConfig, log logger.ILogger) Shutdown {
	if !cfg.Enabled {
		log.Info("Tracer", "Tracing disabled", nil)
		return noop
	}

	// The OTLP/HTTP exporter connects lazily, so an unreachable collector
	// only surfaces later as export errors.
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn("Tracer", "Failed to create OTLP exporter, tracing disabled", map[string]interface{}{
			"endpoint": cfg.Endpoint,
			"error":    err.Error(),
		})
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	log.Info("Tracer", "Tracer initialized", map[string]interface{}{
		"endpoint":     cfg.Endpoint,
		"service_name": cfg.ServiceName,
	})
	return tp.Shutdown
}
