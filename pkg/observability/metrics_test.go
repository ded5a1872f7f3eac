package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func callPoints(t *testing.T, m *metricdata.Metrics) []metricdata.DataPoint[int64] {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	return sum.DataPoints
}

func TestToolMetrics_RecordCall(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	tm, err := observability.NewToolMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	tm.RecordCall(ctx, observability.ToolCall{
		Tool: "commitprefix_search", Source: observability.SourceText, Nibbles: 4,
		Outcome: observability.OutcomeFound, Duration: 100 * time.Millisecond,
	})
	tm.RecordCall(ctx, observability.ToolCall{
		Tool: "commitprefix_search", Source: observability.SourceRepo, Nibbles: 2,
		Outcome: observability.OutcomeApplied, Duration: time.Second,
	})
	tm.RecordCall(ctx, observability.ToolCall{
		Tool: "commitprefix_search", Source: observability.SourceText, Nibbles: 4,
		Outcome: observability.OutcomeFound, Duration: time.Second,
	})

	rm := collectMetrics(t, reader)

	calls := findMetric(rm, "commitprefix.tool.calls.total")
	require.NotNil(t, calls)
	assert.Equal(t, int64(3), sumValue(t, calls))

	points := callPoints(t, calls)
	require.Len(t, points, 2)

	for _, dp := range points {
		outcome, ok := dp.Attributes.Value("outcome")
		require.True(t, ok)

		nibbles, ok := dp.Attributes.Value("nibbles")
		require.True(t, ok)

		switch outcome.AsString() {
		case observability.OutcomeFound:
			assert.Equal(t, int64(2), dp.Value)
			assert.Equal(t, int64(4), nibbles.AsInt64())
		case observability.OutcomeApplied:
			assert.Equal(t, int64(1), dp.Value)
			assert.Equal(t, int64(2), nibbles.AsInt64())
		default:
			t.Fatalf("unexpected outcome %q", outcome.AsString())
		}
	}

	require.NotNil(t, findMetric(rm, "commitprefix.tool.call.duration.seconds"))
}

func TestToolMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	tm, err := observability.NewToolMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := tm.TrackInflight(context.Background(), "commitprefix_search")

	inflight := findMetric(collectMetrics(t, reader), "commitprefix.tool.inflight")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(1), sumValue(t, inflight))

	done()

	inflight = findMetric(collectMetrics(t, reader), "commitprefix.tool.inflight")
	require.NotNil(t, inflight)
	assert.Equal(t, int64(0), sumValue(t, inflight))
}

func TestToolMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var tm *observability.ToolMetrics

	assert.NotPanics(t, func() {
		tm.TrackInflight(context.Background(), "commitprefix_search")()
		tm.RecordCall(context.Background(), observability.ToolCall{Outcome: observability.OutcomeFailed})
	})
}

func TestSearchMetrics_RecordSearch(t *testing.T) {
	t.Parallel()

	mp, reader := setupTestMeter(t)
	sm, err := observability.NewSearchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	sm.RecordSearch(context.Background(), observability.SearchStats{
		Attempts: 4096,
		Duration: 2 * time.Second,
		Workers:  4,
		Nibbles:  3,
		Status:   observability.StatusOK,
	})

	rm := collectMetrics(t, reader)

	attempts := findMetric(rm, "commitprefix.search.attempts.total")
	require.NotNil(t, attempts)
	assert.Equal(t, int64(4096), sumValue(t, attempts))

	searches := findMetric(rm, "commitprefix.searches.total")
	require.NotNil(t, searches)
	assert.Equal(t, int64(1), sumValue(t, searches))

	require.NotNil(t, findMetric(rm, "commitprefix.search.duration.seconds"))

	rate := findMetric(rm, "commitprefix.search.hash_rate")
	require.NotNil(t, rate)

	gauge, ok := rate.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 2048.0, gauge.DataPoints[0].Value, 0.001)
}

func TestSearchMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var sm *observability.SearchMetrics

	assert.NotPanics(t, func() {
		sm.RecordSearch(context.Background(), observability.SearchStats{Attempts: 1})
	})
}
