package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "vlm-bench"

// Metrics holds the benchmark metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// LLM token counters (partitioned by provider + model via attributes)
	InputTokens  metric.Int64Counter
	OutputTokens metric.Int64Counter

	// Evaluation outcomes (partitioned by benchmark + outcome)
	Evaluations metric.Int64Counter
	// Scores per benchmark: 0/1 for labels, IoU for boxes, pixels for points.
	Scores metric.Float64Histogram
	// Responses that parsed to the absent answer.
	AbsentResponses metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global MeterProvider.
// Returns no-op instruments when no MeterProvider is registered (safe to
// call unconditionally).
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.InputTokens, err = meter.Int64Counter("llm.tokens.input",
		metric.WithDescription("Total LLM input tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.OutputTokens, err = meter.Int64Counter("llm.tokens.output",
		metric.WithDescription("Total LLM output tokens consumed"),
		metric.WithUnit("{token}"))
	if err != nil {
		return nil, err
	}

	m.Evaluations, err = meter.Int64Counter("bench.evaluations",
		metric.WithDescription("Test case evaluations partitioned by benchmark and outcome (scored, error)"))
	if err != nil {
		return nil, err
	}

	m.Scores, err = meter.Float64Histogram("bench.score",
		metric.WithDescription("Score per evaluated test case, in the benchmark's own unit"))
	if err != nil {
		return nil, err
	}

	m.AbsentResponses, err = meter.Int64Counter("bench.responses.absent",
		metric.WithDescription("Model responses that could not be parsed into an answer"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTokens records LLM token usage on the metric counters.
func (m *Metrics) RecordTokens(ctx context.Context, provider, model string, input, output int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)
	m.InputTokens.Add(ctx, input, attrs)
	m.OutputTokens.Add(ctx, output, attrs)
}

// RecordEvaluation records one test case evaluation with its outcome.
func (m *Metrics) RecordEvaluation(ctx context.Context, benchmark, outcome string) {
	if m == nil {
		return
	}
	m.Evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bench.benchmark", benchmark),
		attribute.String("bench.outcome", outcome),
	))
}

// RecordScore records a score and counts the response as absent when the
// parser found nothing.
func (m *Metrics) RecordScore(ctx context.Context, benchmark string, value float64, detected bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("bench.benchmark", benchmark))
	m.Scores.Record(ctx, value, attrs)
	if !detected {
		m.AbsentResponses.Add(ctx, 1, attrs)
	}
}
