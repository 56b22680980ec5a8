package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/order-discounts/internal/batch"
)

const instrumentationName = "github.com/xenking/order-discounts"

type batchMetrics struct {
	processed  metric.Int64Counter
	discounted metric.Int64Counter
	malformed  metric.Int64Counter
}

func newBatchMetrics(mp metric.MeterProvider) (*batchMetrics, error) {
	meter := mp.Meter(instrumentationName)

	processed, err := meter.Int64Counter("discount.orders.processed",
		metric.WithDescription("Orders scored by the discount engine"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create processed counter")
	}

	discounted, err := meter.Int64Counter("discount.orders.discounted",
		metric.WithDescription("Orders that received a discount above zero"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create discounted counter")
	}

	malformed, err := meter.Int64Counter("discount.records.malformed",
		metric.WithDescription("Input records that could not be parsed"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create malformed counter")
	}

	return &batchMetrics{
		processed:  processed,
		discounted: discounted,
		malformed:  malformed,
	}, nil
}

func (m *batchMetrics) record(ctx context.Context, res *batch.Result) {
	m.processed.Add(ctx, int64(len(res.Orders)))
	m.discounted.Add(ctx, int64(res.Discounted))
	m.malformed.Add(ctx, int64(len(res.Malformed)))
}
