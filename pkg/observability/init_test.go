package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	require.NotNil(t, providers.Shutdown)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_NoopSpanIsUsable(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	ctx, span := providers.Tracer.Start(context.Background(), "query")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestInitWithWriter_LogsToWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.Environment = "ci"

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.Info("tree built", "nodes", 15)

	out := buf.String()
	assert.Contains(t, out, "tree built")
	assert.Contains(t, out, "nodes=15")
	assert.Contains(t, out, "service=rangeagg")
	assert.Contains(t, out, "env=ci")
}

func TestInit_PrometheusRegistryReceivesMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	cfg := observability.DefaultConfig()
	cfg.PrometheusRegistry = registry

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	ops, err := observability.NewOpMetrics(providers.Meter)
	require.NoError(t, err)

	ops.RecordOp(context.Background(), "sum", "query", 0, nil)

	samples, err := observability.GatherSamples(registry)
	require.NoError(t, err)

	found := findSample(samples, "rangeagg_tree_ops", "query")
	require.NotNil(t, found, "ops counter not exported: %+v", samples)
	assert.InDelta(t, 1, found.Value, 0)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t,
		map[string]string{"authorization": "Bearer x", "tenant": "a"},
		observability.ParseOTLPHeaders(" authorization = Bearer x ,tenant=a"),
	)
}
