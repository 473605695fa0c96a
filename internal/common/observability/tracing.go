package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Logger is the subset of logger.Logger the span exporter needs.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
}

// logExporter writes finished spans to the structured logger at debug level.
type logExporter struct {
	logger Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]interface{}{
			"span":       s.Name(),
			"traceId":    s.SpanContext().TraceID().String(),
			"spanId":     s.SpanContext().SpanID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
		}
		if s.Parent().IsValid() {
			fields["parentSpanId"] = s.Parent().SpanID().String()
		}
		if desc := s.Status().Description; desc != "" {
			fields["statusDescription"] = desc
		}
		for _, attr := range s.Attributes() {
			fields[string(attr.Key)] = attr.Value.Emit()
		}
		e.logger.Debug("span finished", fields)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error { return nil }
