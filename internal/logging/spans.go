package logging

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanExporter writes finished spans to a logrus logger at debug level
type SpanExporter struct {
	logger *log.Logger
}

// NewSpanExporter creates an exporter bound to logger
func NewSpanExporter(logger *log.Logger) *SpanExporter {
	return &SpanExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter
func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if !e.logger.IsLevelEnabled(log.DebugLevel) {
		return nil
	}
	for _, span := range spans {
		fields := log.Fields{
			"span":     span.Name(),
			"trace_id": span.SpanContext().TraceID().String(),
			"took_ms":  float64(span.EndTime().Sub(span.StartTime())) / float64(time.Millisecond),
			"status":   span.Status().Code.String(),
		}
		for _, attr := range span.Attributes() {
			fields[string(attr.Key)] = attr.Value.Emit()
		}
		e.logger.WithFields(fields).Debug("span finished")
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter
func (e *SpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

// NewTracerProvider returns a provider that batches spans into the logger
func NewTracerProvider(logger *log.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(NewSpanExporter(logger)),
	)
}
