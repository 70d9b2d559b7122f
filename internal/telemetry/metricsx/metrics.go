// Package metricsx implements the runtime's Metrics interface with
// Prometheus, plus a no-op implementation for when metrics collection
// is disabled.
package metricsx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics records runtime counters in a private registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	eventsEmitted *prometheus.CounterVec
	stateSize     prometheus.Gauge
}

// NewPrometheusMetrics creates a PrometheusMetrics instance. All metric
// names are prefixed with namespace.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of method invocations",
			},
			[]string{"method", "result"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Wall-clock duration of method invocations",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method"},
		),
		eventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_emitted_total",
				Help:      "Total number of events appended to the event log",
			},
			[]string{"event"},
		),
		stateSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state_size",
				Help:      "Number of keys in the state store",
			},
		),
	}

	registry.MustRegister(m.callsTotal, m.callDuration, m.eventsEmitted, m.stateSize)
	return m
}

// IncCalls counts one completed CallMethod.
func (m *PrometheusMetrics) IncCalls(method, result string) {
	m.callsTotal.WithLabelValues(method, result).Inc()
}

// ObserveCallDuration records one call's duration.
func (m *PrometheusMetrics) ObserveCallDuration(method string, seconds float64) {
	m.callDuration.WithLabelValues(method).Observe(seconds)
}

// IncEventsEmitted counts one emitted event.
func (m *PrometheusMetrics) IncEventsEmitted(event string) {
	m.eventsEmitted.WithLabelValues(event).Inc()
}

// SetStateSize records the number of keys in the state store.
func (m *PrometheusMetrics) SetStateSize(n int) {
	m.stateSize.Set(float64(n))
}

// Handler returns an HTTP handler serving the registry in the
// Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for tests.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// NopMetrics is a no-op implementation of the runtime's Metrics
// interface. Use this when metrics collection is disabled.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) IncCalls(method, result string)                     {}
func (m *NopMetrics) ObserveCallDuration(method string, seconds float64) {}
func (m *NopMetrics) IncEventsEmitted(event string)                      {}
func (m *NopMetrics) SetStateSize(n int)                                 {}
