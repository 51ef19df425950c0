package monitoring

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracingConfig holds tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	Enabled        bool
	// Output receives finished spans as JSON. Defaults to stderr.
	Output io.Writer
}

// TracingProvider wraps OpenTelemetry tracing functionality
type TracingProvider struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracingProvider creates a new tracing provider. A disabled provider
// hands out no-op spans.
func NewTracingProvider(config TracingConfig, logger *zap.Logger) (*TracingProvider, error) {
	logger = logger.Named("tracing")

	if !config.Enabled {
		logger.Info("Tracing is disabled")
		return &TracingProvider{
			tracer: noop.NewTracerProvider().Tracer(config.ServiceName),
			logger: logger,
		}, nil
	}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			attribute.String("deployment.environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing initialized",
		zap.String("service", config.ServiceName),
		zap.String("version", config.ServiceVersion),
		zap.String("environment", config.Environment),
		zap.Float64("sampling_rate", config.SamplingRate),
	)

	return &TracingProvider{
		tracer:   tp.Tracer(config.ServiceName),
		provider: tp,
		logger:   logger,
	}, nil
}

// Tracer returns the tracer spans should be started from
func (t *TracingProvider) Tracer() trace.Tracer {
	return t.tracer
}

// StartHTTPSpan starts a server span for an incoming request
func (t *TracingProvider) StartHTTPSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
}

// Shutdown flushes pending spans
func (t *TracingProvider) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// RecordError marks span as failed
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts trace ID from context for logging correlation.
// It returns "" when the context carries no sampled span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
