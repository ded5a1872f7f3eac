package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricToolCalls    = "commitprefix.tool.calls.total"
	metricToolDuration = "commitprefix.tool.call.duration.seconds"
	metricToolInflight = "commitprefix.tool.inflight"

	attrTool    = "tool"
	attrSource  = "source"
	attrOutcome = "outcome"
)

// Tool call sources.
const (
	SourceRepo = "repo"
	SourceText = "text"
)

// Tool call outcomes.
const (
	OutcomeFound   = "found"
	OutcomeApplied = "applied"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// ToolMetrics counts MCP search tool calls by what was searched and how the
// call ended.
type ToolMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

// ToolCall describes one finished tool call.
type ToolCall struct {
	Tool     string
	Source   string
	Nibbles  int
	Outcome  string
	Duration time.Duration
}

// NewToolMetrics creates tool call instruments from the given meter.
func NewToolMetrics(mt metric.Meter) (*ToolMetrics, error) {
	calls, err := mt.Int64Counter(metricToolCalls,
		metric.WithDescription("Search tool calls by source, prefix length and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolCalls, err)
	}

	duration, err := mt.Float64Histogram(metricToolDuration,
		metric.WithDescription("Search tool call time in seconds, validation included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolDuration, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricToolInflight,
		metric.WithDescription("Search tool calls currently running"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricToolInflight, err)
	}

	return &ToolMetrics{calls: calls, duration: duration, inflight: inflight}, nil
}

// RecordCall records a finished call. Safe to call on a nil receiver.
func (tm *ToolMetrics) RecordCall(ctx context.Context, call ToolCall) {
	if tm == nil {
		return
	}

	tm.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTool, call.Tool),
		attribute.String(attrSource, call.Source),
		attribute.Int(attrNibbles, call.Nibbles),
		attribute.String(attrOutcome, call.Outcome),
	))
	tm.duration.Record(ctx, call.Duration.Seconds(), metric.WithAttributes(
		attribute.String(attrTool, call.Tool),
		attribute.String(attrOutcome, call.Outcome),
	))
}

// TrackInflight increments the running-calls gauge and returns its decrement.
// Safe to call on a nil receiver.
func (tm *ToolMetrics) TrackInflight(ctx context.Context, tool string) func() {
	if tm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrTool, tool))
	tm.inflight.Add(ctx, 1, attrs)

	return func() {
		tm.inflight.Add(ctx, -1, attrs)
	}
}
