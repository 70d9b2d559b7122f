package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardity-org/cardity-wasm/pkg/runtime"
)

// Tracer implements runtime.CallTracer using OpenTelemetry.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer using the given TracerProvider. The
// serviceName identifies this service in traces.
func NewTracer(serviceName string, provider trace.TracerProvider) *Tracer {
	return &Tracer{tracer: provider.Tracer(serviceName)}
}

// StartCall opens a span for one method invocation.
func (t *Tracer) StartCall(ctx context.Context, protocol, method string) (context.Context, runtime.CallSpan) {
	ctx, span := t.tracer.Start(ctx, "CallMethod",
		trace.WithAttributes(
			attribute.String("cardity.protocol", protocol),
			attribute.String("cardity.method", method),
		))
	return ctx, &callSpan{span: span}
}

type callSpan struct {
	span trace.Span
}

// End records the call's outcome and completes the span.
func (s *callSpan) End(success bool, errMsg string) {
	s.span.SetAttributes(attribute.Bool("cardity.success", success))
	if success {
		s.span.SetStatus(codes.Ok, "")
	} else {
		s.span.SetStatus(codes.Error, errMsg)
	}
	s.span.End()
}

var _ runtime.CallTracer = (*Tracer)(nil)
