// Package observe provides application-wide observability primitives for
// the simulator: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/trainloop/repsim/internal/domain"
)

// meterName is the instrumentation scope name used for all simulator metrics.
const meterName = "github.com/trainloop/repsim"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// GenerationDuration tracks customer-reply generation latency. Use with
	// attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	GenerationDuration metric.Float64Histogram

	// EvaluationDuration tracks end-of-conversation evaluation latency.
	EvaluationDuration metric.Float64Histogram

	// --- Counters ---

	// DeterministicTurns counts turns answered by a template without a model
	// call. Use with attribute: attribute.String("tag", ...)
	DeterministicTurns metric.Int64Counter

	// FallbackReplies counts turns and openings served from fallback pools.
	FallbackReplies metric.Int64Counter

	// SynthesizedScores counts evaluations that had to be synthesized because
	// the evaluator was unavailable.
	SynthesizedScores metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("stage", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live training conversations.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// model-inference latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.GenerationDuration, err = m.Float64Histogram("repsim.generation.duration",
		metric.WithDescription("Latency of customer-reply generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EvaluationDuration, err = m.Float64Histogram("repsim.evaluation.duration",
		metric.WithDescription("Latency of conversation evaluation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.DeterministicTurns, err = m.Int64Counter("repsim.turns.deterministic",
		metric.WithDescription("Turns answered by a template without a model call, by tag."),
	); err != nil {
		return nil, err
	}
	if met.FallbackReplies, err = m.Int64Counter("repsim.turns.fallback",
		metric.WithDescription("Turns and openings served from fallback pools."),
	); err != nil {
		return nil, err
	}
	if met.SynthesizedScores, err = m.Int64Counter("repsim.scores.synthesized",
		metric.WithDescription("Evaluations synthesized because the evaluator was unavailable."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("repsim.provider.errors",
		metric.WithDescription("Total provider errors by provider and stage."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("repsim.active_sessions",
		metric.WithDescription("Number of live training conversations."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("repsim.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// ObserveGeneration records one completion attempt with its latency and
// outcome. It satisfies the dialogue orchestrator's metrics sink.
func (m *Metrics) ObserveGeneration(ctx context.Context, provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("provider", provider),
				attribute.String("stage", "generation"),
			),
		)
	}
	m.GenerationDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// CountDeterministic records a turn answered without a model call.
func (m *Metrics) CountDeterministic(ctx context.Context, tag domain.QuestionTag) {
	m.DeterministicTurns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("tag", string(tag))),
	)
}

// CountFallback records a turn or opening served from a fallback pool.
func (m *Metrics) CountFallback(ctx context.Context) {
	m.FallbackReplies.Add(ctx, 1)
}

// ObserveEvaluation records one evaluation attempt with its latency.
func (m *Metrics) ObserveEvaluation(ctx context.Context, provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("provider", provider),
				attribute.String("stage", "evaluation"),
			),
		)
	}
	m.EvaluationDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// CountSynthesizedScore records an evaluation that fell back to synthesis.
func (m *Metrics) CountSynthesizedScore(ctx context.Context) {
	m.SynthesizedScores.Add(ctx, 1)
}

// SessionStarted increments the live-session gauge.
func (m *Metrics) SessionStarted(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

// SessionEnded decrements the live-session gauge.
func (m *Metrics) SessionEnded(ctx context.Context) {
	m.ActiveSessions.Add(ctx, -1)
}
