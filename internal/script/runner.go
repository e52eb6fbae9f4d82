package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/rangeagg/internal/operator"
	"github.com/Sumatoshi-tech/rangeagg/pkg/alg/segtree"
	"github.com/Sumatoshi-tech/rangeagg/pkg/observability"
	"github.com/Sumatoshi-tech/rangeagg/pkg/safeconv"
)

// ErrMemoryBudget is returned when a tree would need more storage than allowed.
var ErrMemoryBudget = errors.New("script: tree exceeds memory budget")

// ErrUnknownStep is returned for a step that carries no operation.
var ErrUnknownStep = errors.New("script: step has no operation")

// opBuild labels the build phase in spans and metrics.
const opBuild = "build"

// nodeBytes is the storage cost of one int64 node.
const nodeBytes = uint64(unsafe.Sizeof(int64(0)))

// StepResult is the outcome of one step.
type StepResult struct {
	Index int    `json:"index" yaml:"index"`
	Kind  string `json:"kind" yaml:"kind"`
	Args  string `json:"args" yaml:"args"`
	Value *int64 `json:"value,omitempty" yaml:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the outcome of a script run.
type Report struct {
	Operator     string       `json:"operator" yaml:"operator"`
	Size         int          `json:"size" yaml:"size"`
	Capacity     int          `json:"capacity" yaml:"capacity"`
	Nodes        int          `json:"nodes" yaml:"nodes"`
	StorageBytes uint64       `json:"storage_bytes" yaml:"storage_bytes"`
	Steps        []StepResult `json:"steps" yaml:"steps"`
	Final        []int64      `json:"final" yaml:"final"`
}

// Failed returns the steps that ended in an error.
func (r *Report) Failed() []StepResult {
	return lo.Filter(r.Steps, func(s StepResult, _ int) bool {
		return s.Error != ""
	})
}

// Runner executes scripts against an int64 segment tree.
// A Runner is not safe for concurrent use.
type Runner struct {
	tracer    trace.Tracer
	metrics   *observability.OpMetrics
	logger    *slog.Logger
	maxMemory uint64
	keepGoing bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer sets the tracer used for per-step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) { r.tracer = tracer }
}

// WithMetrics sets the operation metrics sink.
func WithMetrics(m *observability.OpMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMaxMemory caps tree storage in bytes. Zero disables the check.
func WithMaxMemory(limit uint64) Option {
	return func(r *Runner) { r.maxMemory = limit }
}

// WithKeepGoing records failing steps in the report instead of aborting.
func WithKeepGoing(keepGoing bool) Option {
	return func(r *Runner) { r.keepGoing = keepGoing }
}

// NewRunner creates a Runner. Without options it traces to a no-op tracer,
// records no metrics and discards logs.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		tracer: nooptrace.NewTracerProvider().Tracer("rangeagg"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run builds the tree described by s and executes its steps in order. On a
// failing step it returns the partial report together with the error, unless
// the runner keeps going.
func (r *Runner) Run(ctx context.Context, s *Script) (*Report, error) {
	ctx = observability.ContextWithOperator(ctx, s.Operator)

	ctx, span := r.tracer.Start(ctx, "script.run", trace.WithAttributes(
		attribute.String("operator", s.Operator),
		attribute.Int("steps", len(s.Steps)),
		attribute.StringSlice("step.kinds", s.Kinds()),
	))
	defer span.End()

	tree, report, err := r.build(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	for i, step := range s.Steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, fmt.Errorf("step %d: %w", i, ctxErr)
		}

		result, stepErr := r.step(ctx, s.Operator, tree, i, step)
		report.Steps = append(report.Steps, result)

		if stepErr == nil {
			continue
		}

		r.logger.WarnContext(ctx, "step failed", "index", i, "kind", result.Kind, "error", stepErr)

		if !r.keepGoing {
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, stepErr.Error())

			return report, fmt.Errorf("step %d (%s %s): %w", i, result.Kind, result.Args, stepErr)
		}
	}

	report.Final = tree.Values()

	return report, nil
}

func (r *Runner) build(ctx context.Context, s *Script) (*segtree.Tree[int64], *Report, error) {
	m, err := operator.Lookup(s.Operator)
	if err != nil {
		return nil, nil, err
	}

	size := s.TreeSize()
	if len(s.Values) > size {
		return nil, nil, fmt.Errorf("%w: %d values exceed size %d", ErrInvalidScript, len(s.Values), size)
	}

	nodes, err := segtree.NodeCount(size)
	if err != nil {
		return nil, nil, fmt.Errorf("size tree: %w", err)
	}

	storage := safeconv.MustIntToUint64(nodes) * nodeBytes
	if r.maxMemory > 0 && storage > r.maxMemory {
		return nil, nil, fmt.Errorf("%w: %s needed, %s allowed",
			ErrMemoryBudget, humanize.IBytes(storage), humanize.IBytes(r.maxMemory))
	}

	tree, err := segtree.New(size, m)
	if err != nil {
		return nil, nil, fmt.Errorf("create tree: %w", err)
	}

	_, span := r.tracer.Start(ctx, "segtree."+opBuild, trace.WithAttributes(attribute.Int("values", len(s.Values))))
	start := time.Now()
	err = tree.BuildSlice(s.Values)
	r.record(ctx, s.Operator, opBuild, start, err)
	endSpan(span, err)

	if err != nil {
		return nil, nil, fmt.Errorf("build tree: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordTreeSize(ctx, s.Operator, nodes)
	}

	r.logger.DebugContext(ctx, "tree built",
		"size", size, "capacity", tree.Capacity(), "storage", humanize.IBytes(storage))

	return tree, &Report{
		Operator:     s.Operator,
		Size:         size,
		Capacity:     tree.Capacity(),
		Nodes:        nodes,
		StorageBytes: storage,
		Steps:        make([]StepResult, 0, len(s.Steps)),
	}, nil
}

func (r *Runner) step(ctx context.Context, op string, tree *segtree.Tree[int64], i int, step Step) (StepResult, error) {
	result := StepResult{Index: i, Kind: step.Kind(), Args: step.Describe()}

	if result.Kind == "" {
		err := ErrUnknownStep
		result.Error = err.Error()

		return result, err
	}

	_, span := r.tracer.Start(ctx, "segtree."+result.Kind, trace.WithAttributes(
		attribute.Int("step", i),
		attribute.String("args", result.Args),
	))
	start := time.Now()

	var (
		value int64
		err   error
	)

	switch result.Kind {
	case KindQuery:
		value, err = tree.Query(step.Query.Left, step.Query.Right)
	case KindUpdate:
		err = tree.Update(step.Update.Index, step.Update.Value)
	case KindGet:
		value, err = tree.Get(step.Get.Index)
	}

	r.record(ctx, op, result.Kind, start, err)
	endSpan(span, err)

	if err != nil {
		result.Error = err.Error()

		return result, err
	}

	if result.Kind != KindUpdate {
		result.Value = &value
	}

	r.logger.DebugContext(ctx, "step done", "index", i, "kind", result.Kind, "args", result.Args)

	return result, nil
}

func (r *Runner) record(ctx context.Context, operatorName, op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}

	r.metrics.RecordOp(ctx, operatorName, op, time.Since(start), err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
