package observability_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.OpMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	ops, err := observability.NewOpMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return ops, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

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

func findSample(samples []observability.Sample, prefix, op string) *observability.Sample {
	for i := range samples {
		if strings.HasPrefix(samples[i].Name, prefix) && samples[i].Labels["op"] == op {
			return &samples[i]
		}
	}

	return nil
}

func TestOpMetrics_RecordOp(t *testing.T) {
	t.Parallel()

	ops, reader := setupTestMeter(t)

	ops.RecordOp(context.Background(), "sum", "query", time.Microsecond, nil)
	ops.RecordOp(context.Background(), "sum", "query", time.Microsecond, nil)

	rm := collectMetrics(t, reader)

	total := findMetric(rm, observability.MetricOpsTotal)
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	assert.NotNil(t, findMetric(rm, observability.MetricOpDuration))
}

func TestOpMetrics_RecordOpError(t *testing.T) {
	t.Parallel()

	ops, reader := setupTestMeter(t)

	ops.RecordOp(context.Background(), "min", "update", time.Microsecond, errors.New("boom"))

	rm := collectMetrics(t, reader)

	errTotal := findMetric(rm, observability.MetricErrorsTotal)
	require.NotNil(t, errTotal)

	sum, ok := errTotal.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestOpMetrics_RecordTreeSize(t *testing.T) {
	t.Parallel()

	ops, reader := setupTestMeter(t)

	ops.RecordTreeSize(context.Background(), "max", 15)

	rm := collectMetrics(t, reader)

	nodes := findMetric(rm, observability.MetricTreeNodes)
	require.NotNil(t, nodes)

	gauge, ok := nodes.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(15), gauge.DataPoints[0].Value)
}
