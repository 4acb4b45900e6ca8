// Package observe records assessment metrics through the OpenTelemetry
// metrics API. Callers pass a MeterProvider; tests use a ManualReader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/verte-zerg/umeed"

// Outcome labels for the assessments counter.
const (
	OutcomeScored       = "scored"
	OutcomeInsufficient = "insufficient"
	OutcomeFailed       = "failed"
)

// Metrics holds the instruments used by the assessment engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Assessments counts analyzed attempts by attribute "outcome".
	Assessments metric.Int64Counter
	Accuracy    metric.Float64Histogram
	Fluency     metric.Float64Histogram

	// TranscribeDuration tracks speech-to-text latency in seconds.
	TranscribeDuration metric.Float64Histogram

	StoreFailures       metric.Int64Counter
	TranscriberFailures metric.Int64Counter
}

var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1, 1.2}

var latencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// NewMetrics creates every instrument on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Assessments, err = m.Int64Counter("umeed.assessments",
		metric.WithDescription("Reading attempts analyzed, by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Accuracy, err = m.Float64Histogram("umeed.assessment.accuracy",
		metric.WithDescription("Word accuracy of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Fluency, err = m.Float64Histogram("umeed.assessment.fluency",
		metric.WithDescription("Fluency score of scored attempts."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("umeed.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.StoreFailures, err = m.Int64Counter("umeed.store.failures",
		metric.WithDescription("Session store operations that failed, by op."),
	); err != nil {
		return nil, err
	}
	if met.TranscriberFailures, err = m.Int64Counter("umeed.transcriber.failures",
		metric.WithDescription("Speech-to-text requests that failed."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared instance built on the global provider.
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

// RecordAssessment counts one attempt and, when it was scored, its figures.
func (m *Metrics) RecordAssessment(ctx context.Context, outcome string, accuracy, fluency float64) {
	if m == nil {
		return
	}
	m.Assessments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome != OutcomeScored {
		return
	}
	m.Accuracy.Record(ctx, accuracy)
	m.Fluency.Record(ctx, fluency)
}

// RecordStoreFailure counts a failed store operation.
func (m *Metrics) RecordStoreFailure(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.StoreFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordTranscription records a speech-to-text call and whether it failed.
func (m *Metrics) RecordTranscription(ctx context.Context, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.TranscribeDuration.Record(ctx, seconds)
	if failed {
		m.TranscriberFailures.Add(ctx, 1)
	}
}
