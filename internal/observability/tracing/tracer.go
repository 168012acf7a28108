// Package tracing provides OpenTelemetry instrumentation for the control
// API: a shared tracer and HTTP middleware that joins incoming W3C trace
// context.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the shared tracer for the alerting platform.
var tracer = otel.Tracer("alerthub")

// GetTracer returns the shared tracer for creating spans.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "reminder.run")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
