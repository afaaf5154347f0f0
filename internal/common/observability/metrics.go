package observability

import (
	"context"
	"time"

	"appointment-scheduler/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	runCounter     otelmetric.Int64Counter
	runDuration    otelmetric.Float64Histogram
}

// New installs a tracer provider whose spans are written to log, and a meter
// provider read by the Prometheus default registry.
func New(serviceName string, log logger.Logger) *Observability {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(&logExporter{logger: log}),
	)
	otel.SetTracerProvider(tracerProvider)

	obs := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return obs
	}

	obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(obs.meterProvider)

	meter := obs.meterProvider.Meter(serviceName)

	obs.runCounter, _ = meter.Int64Counter(
		"pipeline.runs",
		otelmetric.WithDescription("Number of pipeline runs"),
	)

	obs.runDuration, _ = meter.Float64Histogram(
		"pipeline.run.duration",
		otelmetric.WithDescription("End-to-end pipeline run duration"),
		otelmetric.WithUnit("ms"),
	)

	return obs
}

// StartSpan opens a span for one pipeline run. The returned function ends
// the span, marking it failed when err is non-nil.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("appointment-scheduler")
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "pipeline run completed")
		}
		span.End()
	}
}

func (o *Observability) RecordRun(ctx context.Context, duration time.Duration, status string) {
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, attrs)
	}
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
