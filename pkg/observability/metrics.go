package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by OpMetrics.
const (
	MetricOpsTotal    = "rangeagg.tree.ops.total"
	MetricOpDuration  = "rangeagg.tree.op.duration.seconds"
	MetricErrorsTotal = "rangeagg.tree.errors.total"
	MetricTreeNodes   = "rangeagg.tree.nodes"

	attrOp       = "op"
	attrStatus   = "status"
	attrOperator = "operator"

	statusOK    = "ok"
	statusError = "error"
)

// opBucketBoundaries covers 1µs to 1s; queries and updates sit at the low
// end, full builds of large trees at the high end.
var opBucketBoundaries = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2, 0.1, 1}

// OpMetrics holds the instruments for tree operations.
type OpMetrics struct {
	opsTotal    metric.Int64Counter
	opDuration  metric.Float64Histogram
	errorsTotal metric.Int64Counter
	treeNodes   metric.Int64Gauge
}

// NewOpMetrics creates the tree operation instruments from mt.
func NewOpMetrics(mt metric.Meter) (*OpMetrics, error) {
	opsTotal, err := mt.Int64Counter(MetricOpsTotal,
		metric.WithDescription("Total tree operations"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricOpsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(MetricOpDuration,
		metric.WithDescription("Tree operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(opBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricOpDuration, err)
	}

	errorsTotal, err := mt.Int64Counter(MetricErrorsTotal,
		metric.WithDescription("Total rejected tree operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricErrorsTotal, err)
	}

	treeNodes, err := mt.Int64Gauge(MetricTreeNodes,
		metric.WithDescription("Storage nodes of the most recently built tree"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricTreeNodes, err)
	}

	return &OpMetrics{
		opsTotal:    opsTotal,
		opDuration:  opDuration,
		errorsTotal: errorsTotal,
		treeNodes:   treeNodes,
	}, nil
}

// RecordOp records one finished operation. A non-nil err counts as an error.
func (om *OpMetrics) RecordOp(ctx context.Context, operator, op string, duration time.Duration, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperator, operator),
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	om.opsTotal.Add(ctx, 1, attrs)
	om.opDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		om.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrOperator, operator),
			attribute.String(attrOp, op),
		))
	}
}

// RecordTreeSize records the storage node count of a freshly built tree.
func (om *OpMetrics) RecordTreeSize(ctx context.Context, operator string, nodes int) {
	om.treeNodes.Record(ctx, int64(nodes), metric.WithAttributes(attribute.String(attrOperator, operator)))
}
