package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricAttemptsTotal  = "commitprefix.search.attempts.total"
	metricSearchesTotal  = "commitprefix.searches.total"
	metricSearchDuration = "commitprefix.search.duration.seconds"
	metricHashRate       = "commitprefix.search.hash_rate"

	attrWorkers = "workers"
	attrNibbles = "nibbles"
	attrStatus  = "status"

	// StatusOK labels a search that found a match.
	StatusOK = "ok"
	// StatusError labels a search that stopped without one.
	StatusError = "error"
)

// durationBucketBoundaries spans sub-second short prefixes to hour-long searches.
var durationBucketBoundaries = []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800, 3600}

// SearchMetrics holds the instruments recorded once per prefix search.
type SearchMetrics struct {
	attempts metric.Int64Counter
	searches metric.Int64Counter
	duration metric.Float64Histogram
	hashRate metric.Float64Gauge
}

// SearchStats summarizes one finished search, decoupled from search types.
type SearchStats struct {
	Attempts int64
	Duration time.Duration
	Workers  int
	Nibbles  int
	Status   string
}

// NewSearchMetrics creates search instruments from the given meter.
func NewSearchMetrics(mt metric.Meter) (*SearchMetrics, error) {
	attempts, err := mt.Int64Counter(metricAttemptsTotal,
		metric.WithDescription("Digests computed across all searches"),
		metric.WithUnit("{hash}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAttemptsTotal, err)
	}

	searches, err := mt.Int64Counter(metricSearchesTotal,
		metric.WithDescription("Finished searches by status"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSearchesTotal, err)
	}

	duration, err := mt.Float64Histogram(metricSearchDuration,
		metric.WithDescription("Search wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSearchDuration, err)
	}

	hashRate, err := mt.Float64Gauge(metricHashRate,
		metric.WithDescription("Digests per second of the last search"),
		metric.WithUnit("{hash}/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHashRate, err)
	}

	return &SearchMetrics{
		attempts: attempts,
		searches: searches,
		duration: duration,
		hashRate: hashRate,
	}, nil
}

// RecordSearch records a finished search. Safe to call on a nil receiver.
func (sm *SearchMetrics) RecordSearch(ctx context.Context, stats SearchStats) {
	if sm == nil {
		return
	}

	shape := metric.WithAttributes(
		attribute.Int(attrWorkers, stats.Workers),
		attribute.Int(attrNibbles, stats.Nibbles),
	)

	sm.attempts.Add(ctx, stats.Attempts, shape)
	sm.searches.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, stats.Status)))
	sm.duration.Record(ctx, stats.Duration.Seconds(), shape)

	if secs := stats.Duration.Seconds(); secs > 0 {
		sm.hashRate.Record(ctx, float64(stats.Attempts)/secs, shape)
	}
}
