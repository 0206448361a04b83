package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "brandloom"

// Metrics holds all review-pipeline metric instruments.
type Metrics struct {
	ReviewsEnqueued   metric.Int64Counter
	ReviewsApproved   metric.Int64Counter
	ReviewsRejected   metric.Int64Counter
	BlockedApprovals  metric.Int64Counter
	DuplicateEnqueues metric.Int64Counter
	PartialFailures   metric.Int64Counter
	QueueWait         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ReviewsEnqueued, err = meter.Int64Counter("brandloom.reviews.enqueued",
		metric.WithDescription("Number of review items enqueued"))
	if err != nil {
		return nil, err
	}

	m.ReviewsApproved, err = meter.Int64Counter("brandloom.reviews.approved",
		metric.WithDescription("Number of review items approved"))
	if err != nil {
		return nil, err
	}

	m.ReviewsRejected, err = meter.Int64Counter("brandloom.reviews.rejected",
		metric.WithDescription("Number of review items rejected"))
	if err != nil {
		return nil, err
	}

	m.BlockedApprovals, err = meter.Int64Counter("brandloom.reviews.blocked_approvals",
		metric.WithDescription("Number of approve attempts refused on blocked items"))
	if err != nil {
		return nil, err
	}

	m.DuplicateEnqueues, err = meter.Int64Counter("brandloom.reviews.duplicate_enqueues",
		metric.WithDescription("Number of enqueue attempts rejected as duplicates"))
	if err != nil {
		return nil, err
	}

	m.PartialFailures, err = meter.Int64Counter("brandloom.dashboard.partial_failures",
		metric.WithDescription("Number of per-brand fetch failures during dashboard aggregation"))
	if err != nil {
		return nil, err
	}

	m.QueueWait, err = meter.Float64Histogram("brandloom.reviews.queue_wait_seconds",
		metric.WithDescription("Time between enqueue and decision in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
