package ripple

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("ripple")
	meter  = otel.Meter("ripple")
)

var (
	queryLatency       metric.Float64Histogram
	queryTotal         metric.Int64Counter
	contractViolations metric.Int64Counter
	ingestLatency      metric.Float64Histogram
	ingestRejected     metric.Int64Counter
	indexRebuilds      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryLatency, err = meter.Float64Histogram(
			"ripple_query_duration_seconds",
			metric.WithDescription("Duration of engine queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryTotal, err = meter.Int64Counter(
			"ripple_query_total",
			metric.WithDescription("Total number of engine queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		contractViolations, err = meter.Int64Counter(
			"ripple_contract_violations_total",
			metric.WithDescription("Queries that exceeded their latency budget"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		ingestLatency, err = meter.Float64Histogram(
			"ripple_ingest_duration_seconds",
			metric.WithDescription("Duration of batch ingestion"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		ingestRejected, err = meter.Int64Counter(
			"ripple_ingest_rejected_edges_total",
			metric.WithDescription("Edges rejected during ingestion because an endpoint was missing"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		indexRebuilds, err = meter.Int64Counter(
			"ripple_index_rebuilds_total",
			metric.WithDescription("Full rebuilds of the name and file indexes"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordQueryMetrics(ctx context.Context, class QueryClass, duration time.Duration, violated bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("query_class", string(class)))
	queryLatency.Record(ctx, duration.Seconds(), attrs)
	queryTotal.Add(ctx, 1, attrs)
	if violated {
		contractViolations.Add(ctx, 1, attrs)
	}
}

func recordIngestMetrics(ctx context.Context, duration time.Duration, rejected int) {
	if err := initMetrics(); err != nil {
		return
	}
	ingestLatency.Record(ctx, duration.Seconds())
	if rejected > 0 {
		ingestRejected.Add(ctx, int64(rejected))
	}
}

func recordIndexRebuild(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	indexRebuilds.Add(ctx, 1)
}

func startIngestSpan(ctx context.Context, nodes, edges int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Ingest",
		trace.WithAttributes(
			attribute.Int("ripple.batch.nodes", nodes),
			attribute.Int("ripple.batch.edges", edges),
		),
	)
}

func startImpactSpan(ctx context.Context, entity string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "QueryBuilder.AnalyzeImpact",
		trace.WithAttributes(attribute.String("ripple.entity", entity)),
	)
}
