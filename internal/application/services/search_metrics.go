package services

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type similarityMetrics struct {
	batchCount    metric.Int64Counter
	batchFailures metric.Int64Counter
	parseFailures metric.Int64Counter
	batchSize     metric.Int64Histogram
}

var (
	similarityMetricsOnce sync.Once
	similarityInstruments *similarityMetrics
)

func ensureSimilarityMetrics() *similarityMetrics {
	similarityMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/medbook/backend/search")

		batchCount, err := meter.Int64Counter(
			"search.similarity.batch.count",
			metric.WithDescription("Number of LLM similarity batches"),
		)
		if err != nil {
			return
		}
		batchFailures, err := meter.Int64Counter(
			"search.similarity.batch.failures",
			metric.WithDescription("Number of LLM similarity batches that failed in transport"),
		)
		if err != nil {
			return
		}
		parseFailures, err := meter.Int64Counter(
			"search.similarity.parse.failures",
			metric.WithDescription("Number of LLM similarity responses that could not be parsed"),
		)
		if err != nil {
			return
		}
		batchSize, err := meter.Int64Histogram(
			"search.similarity.batch.size",
			metric.WithDescription("Candidates per LLM similarity batch"),
		)
		if err != nil {
			return
		}

		similarityInstruments = &similarityMetrics{
			batchCount:    batchCount,
			batchFailures: batchFailures,
			parseFailures: parseFailures,
			batchSize:     batchSize,
		}
	})
	return similarityInstruments
}

func recordSimilarityBatch(ctx context.Context, size int, err error) {
	m := ensureSimilarityMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("search.batch.failed", err != nil))
	m.batchCount.Add(ctx, 1, attrs)
	m.batchSize.Record(ctx, int64(size))
	if err != nil {
		m.batchFailures.Add(ctx, 1)
	}
}

func recordSimilarityParseFailure(ctx context.Context) {
	if m := ensureSimilarityMetrics(); m != nil {
		m.parseFailures.Add(ctx, 1)
	}
}
