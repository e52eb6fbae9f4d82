package observability

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/exp/maps"
)

// NewPrometheusReader returns an OTel metric reader that registers its
// collector on registry. Use a fresh registry per provider to avoid
// duplicate collector errors.
func NewPrometheusReader(registry *prometheus.Registry) (sdkmetric.Reader, error) {
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, nil
}

// Sample is one gathered counter or gauge series.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// GatherSamples collects counter and gauge series from registry, sorted by
// name then labels. Histograms are skipped.
func GatherSamples(registry *prometheus.Registry) ([]Sample, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var samples []Sample

	for _, family := range families {
		for _, series := range family.GetMetric() {
			var value float64

			switch {
			case series.GetCounter() != nil:
				value = series.GetCounter().GetValue()
			case series.GetGauge() != nil:
				value = series.GetGauge().GetValue()
			default:
				continue
			}

			labels := make(map[string]string, len(series.GetLabel()))
			for _, pair := range series.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}

			samples = append(samples, Sample{Name: family.GetName(), Labels: labels, Value: value})
		}
	}

	keyed := make([]keyedSample, len(samples))
	for i, sample := range samples {
		keyed[i] = keyedSample{sample: sample, labels: sample.LabelString()}
	}

	slices.SortStableFunc(keyed, func(a, b keyedSample) int {
		return cmp.Or(
			cmp.Compare(a.sample.Name, b.sample.Name),
			cmp.Compare(a.labels, b.labels),
		)
	})

	for i, k := range keyed {
		samples[i] = k.sample
	}

	return samples, nil
}

// LabelString renders the labels as "k=v" pairs joined by commas, sorted by key.
func (s Sample) LabelString() string {
	keys := slices.Sorted(maps.Keys(s.Labels))

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+s.Labels[k])
	}

	return strings.Join(pairs, ",")
}

type keyedSample struct {
	sample Sample
	labels string
}
