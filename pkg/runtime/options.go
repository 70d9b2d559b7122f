package runtime

import (
	"context"
	"log/slog"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

// Metrics is the sink for the Orchestrator's operational counters. The
// default implementation discards everything; a Prometheus-backed
// implementation lives in internal/telemetry/metricsx.
type Metrics interface {
	// IncCalls counts one completed CallMethod, labeled by method name
	// and result class ("ok" or an ErrorKind name).
	IncCalls(method, result string)

	// ObserveCallDuration records one call's wall-clock duration.
	ObserveCallDuration(method string, seconds float64)

	// IncEventsEmitted counts one emitted event by name.
	IncEventsEmitted(event string)

	// SetStateSize records the number of keys in the state store.
	SetStateSize(n int)
}

type nopMetrics struct{}

func (nopMetrics) IncCalls(string, string)             {}
func (nopMetrics) ObserveCallDuration(string, float64) {}
func (nopMetrics) IncEventsEmitted(string)             {}
func (nopMetrics) SetStateSize(int)                    {}

// CallTracer starts a span around one CallMethod invocation. The default
// implementation does nothing; an OpenTelemetry-backed implementation
// lives in internal/telemetry/tracing.
type CallTracer interface {
	StartCall(ctx context.Context, protocol, method string) (context.Context, CallSpan)
}

// CallSpan finishes a call span with its outcome.
type CallSpan interface {
	End(success bool, errMsg string)
}

type nopTracer struct{}

type nopSpan struct{}

func (nopTracer) StartCall(ctx context.Context, _, _ string) (context.Context, CallSpan) {
	return ctx, nopSpan{}
}

func (nopSpan) End(bool, string) {}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithBackend selects the state storage engine. The default is the
// in-memory backend.
func WithBackend(b state.Backend) Option {
	return func(o *Orchestrator) { o.backend = b }
}

// WithConfig replaces the runtime options.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithLogger attaches a structured logger. The default discards all
// output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer attaches a call tracer.
func WithTracer(t CallTracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithClock injects the time source used for event and snapshot
// timestamps.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}
