package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// filteringTracerProvider hands out tracers that replace spans with the
// configured names by no-op spans, so scripts with many steps can be traced
// at the run and build level only.
type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
	suppress map[string]bool
}

// NewFilteringTracerProvider wraps delegate so that spans named in suppress
// are never recorded. With nothing to suppress delegate is returned as is.
func NewFilteringTracerProvider(delegate trace.TracerProvider, suppress []string) trace.TracerProvider {
	if len(suppress) == 0 {
		return delegate
	}

	names := make(map[string]bool, len(suppress))
	for _, name := range suppress {
		names[name] = true
	}

	return &filteringTracerProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
		suppress: names,
	}
}

func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
		suppress: f.suppress,
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
	suppress map[string]bool
}

// Start returns a no-op span for suppressed names. The no-op span still
// carries the parent's span context, so children stay attached to the trace.
func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if f.suppress[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}
