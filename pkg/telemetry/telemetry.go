// Package telemetry provides StartSpan, an OpenTelemetry span helper a
// caller can place around a pipeline evaluation, degrading gracefully to
// no-ops when no TracerProvider has been registered, so a caller who never
// wires in an exporter pays nothing and sees nothing break. The pipeline
// and guard packages do not start spans themselves.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/acartag7/callguard"

// StartSpan begins a span named name with the given attributes, using the
// globally registered TracerProvider. If none was ever configured, the
// otel SDK's default no-op provider is used, so this is always safe to
// call unconditionally around a pipeline evaluation.
func StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func()) {
	tracer := otel.Tracer(tracerName)
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(kvs...))
	return ctx, func() { span.End() }
}
