package observability

import (
	"context"

	"appointment-scheduler/internal/common/logger"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logExporter writes each finished span as one debug log entry.
type logExporter struct {
	logger logger.Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := map[string]interface{}{
			"span":       span.Name(),
			"traceId":    span.SpanContext().TraceID().String(),
			"spanId":     span.SpanContext().SpanID().String(),
			"durationMs": span.EndTime().Sub(span.StartTime()).Milliseconds(),
			"status":     span.Status().Code.String(),
		}
		if desc := span.Status().Description; desc != "" {
			fields["statusDescription"] = desc
		}
		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.logger.Debug("Span finished", fields)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
