package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
)

func TestSample_LabelString(t *testing.T) {
	t.Parallel()

	sample := observability.Sample{Labels: map[string]string{"status": "ok", "op": "query", "operator": "sum"}}

	assert.Equal(t, "op=query,operator=sum,status=ok", sample.LabelString())
	assert.Empty(t, observability.Sample{}.LabelString())
}

func TestGatherSamples_SortedByNameThenLabels(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "b_ops_total"}, []string{"op"})
	nodes := prometheus.NewGauge(prometheus.GaugeOpts{Name: "a_nodes"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "c_latency"})
	registry.MustRegister(ops, nodes, latency)

	ops.WithLabelValues("update").Add(2)
	ops.WithLabelValues("get").Inc()
	ops.WithLabelValues("query").Add(3)
	nodes.Set(15)
	latency.Observe(1)

	samples, err := observability.GatherSamples(registry)
	require.NoError(t, err)

	got := make([]string, 0, len(samples))
	for _, s := range samples {
		got = append(got, s.Name+"{"+s.LabelString()+"}")
	}

	assert.Equal(t, []string{
		"a_nodes{}",
		"b_ops_total{op=get}",
		"b_ops_total{op=query}",
		"b_ops_total{op=update}",
	}, got)
	assert.InDelta(t, 15, samples[0].Value, 0)
}
