package trajectory

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/copyleftdev/descent/internal/metrics"
	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
	"github.com/copyleftdev/descent/internal/optimization/rules"
)

// Spec fully describes one run. Identical specs produce bit-identical
// histories.
type Spec struct {
	Objective  string        `json:"objective"`
	Variant    rules.Variant `json:"variant"`
	Params     rules.Params  `json:"params"`
	Initial    []float64     `json:"initial"`
	Iterations int           `json:"iterations"`
}

// Resolve looks up the spec's objective and builds its rule. The objective
// name is checked first, so an unknown surface is always reported as
// optimization.ErrUnknownObjective.
func (s Spec) Resolve() (objectives.Objective, rules.Rule, error) {
	o, err := objectives.Lookup(s.Objective, len(s.Initial))
	if err != nil {
		return nil, nil, err
	}
	r, err := rules.New(s.Variant, s.Params)
	if err != nil {
		return nil, nil, err
	}
	return o, r, nil
}

// Run records the trajectory of rule r on objective o from initial over
// exactly iterations updates. The returned history starts with the initial
// point as iteration 0.
//
// If an update yields a non-finite gradient, position or value, Run stops and
// returns the records produced so far together with an error matching
// optimization.ErrNumericOverflow.
func Run(o objectives.Objective, r rules.Rule, initial []float64, iterations int) (*History, error) {
	return run(context.Background(), o, r, initial, iterations, nil)
}

func run(ctx context.Context, o objectives.Objective, r rules.Rule, initial []float64, iterations int, onStep func(Record)) (*History, error) {
	if iterations < 0 {
		return nil, optimization.InvalidHyperparameter("iterations", iterations, "[0, Inf)").
			WithComponent("trajectory").WithOperation("run")
	}
	if err := objectives.CheckPoint(o, initial); err != nil {
		return nil, err
	}
	if !optimization.IsFinite(initial...) {
		return nil, optimization.InvalidHyperparameter("initial", initial, "finite values").
			WithComponent("trajectory").WithOperation("run")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	state := rules.NewState(initial)
	r.Init(state)

	rec := NewRecorder(iterations)
	first := Record{Iteration: 0, Position: state.Point(), Value: o.Value(initial)}
	if !optimization.IsFinite(first.Value) {
		return nil, overflow(0, "value", first.Value)
	}
	if err := rec.Append(first); err != nil {
		return nil, err
	}

	for i := 1; i <= iterations; i++ {
		if err := ctx.Err(); err != nil {
			return rec.Finish(), optimization.WrapErrorf(err, "stopped before iteration %d", i).
				WithComponent("trajectory")
		}

		diag, err := r.Step(o, state)
		if err != nil {
			return rec.Finish(), optimization.WrapErrorf(err, "iteration %d", i).WithComponent("trajectory")
		}

		pos := state.Point()
		if !optimization.IsFinite(pos...) {
			return rec.Finish(), overflow(i, "position", pos)
		}
		value := o.Value(pos)
		if !optimization.IsFinite(value) {
			return rec.Finish(), overflow(i, "value", value)
		}

		record := Record{Iteration: state.Iteration, Position: pos, Value: value, Diagnostics: diag}
		if err := rec.Append(record); err != nil {
			return rec.Finish(), err
		}
		if onStep != nil {
			onStep(record)
		}
	}

	return rec.Finish(), nil
}

func overflow(iteration int, what string, value interface{}) error {
	return optimization.WrapErrorf(optimization.ErrNumericOverflow,
		"iteration %d: non-finite %s %v", iteration, what, value).WithComponent("trajectory")
}

// Runner executes specs with logging and metrics. A Runner holds no
// per-run state and is safe for concurrent use.
type Runner struct {
	logger        *zap.Logger
	metrics       *metrics.Recorder
	workers       int
	maxIterations int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithWorkers bounds the number of runs RunAll executes at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxIterations rejects specs asking for more than n updates. Zero means
// no limit.
func WithMaxIterations(n int) Option {
	return func(r *Runner) { r.maxIterations = n }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:  zap.NewNop(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes spec. All validation happens before the first update. The
// context is checked between iterations; when it is done, Run returns the
// records produced so far and the context's error.
func (r *Runner) Run(ctx context.Context, spec Spec) (*History, error) {
	return r.RunObserved(ctx, spec, nil)
}

// RunObserved is Run with a callback invoked after every recorded update,
// on the calling goroutine.
func (r *Runner) RunObserved(ctx context.Context, spec Spec, observe func(Record)) (*History, error) {
	log := r.logger.With(
		zap.String("objective", spec.Objective),
		zap.String("variant", spec.Variant.String()),
		zap.Int("iterations", spec.Iterations),
	)

	o, rule, err := spec.Resolve()
	if err == nil && r.maxIterations > 0 && spec.Iterations > r.maxIterations {
		err = optimization.InvalidHyperparameter("iterations", spec.Iterations, "[0, max_iterations]").
			WithComponent("trajectory")
	}
	if err != nil {
		log.Debug("rejected run", zap.Error(err))
		variant, objective := metricLabels(spec)
		r.metrics.RunStarted()
		r.metrics.RunFinished(variant, objective, outcome(err), 0, 0)
		return nil, err
	}

	start := time.Now()
	r.metrics.RunStarted()
	h, err := run(ctx, o, rule, spec.Initial, spec.Iterations, func(rec Record) {
		if ce := log.Check(zap.DebugLevel, "step"); ce != nil {
			ce.Write(zap.Int("iteration", rec.Iteration), zap.Float64s("position", rec.Position), zap.Float64("value", rec.Value))
		}
		if observe != nil {
			observe(rec)
		}
	})
	elapsed := time.Since(start)

	applied := h.Len() - 1
	if applied < 0 {
		applied = 0
	}
	r.metrics.RunFinished(spec.Variant.String(), spec.Objective, outcome(err), applied, elapsed)

	if err != nil {
		log.Warn("run stopped early", zap.Error(err), zap.Int("applied", applied))
		return h, err
	}
	last := h.Last()
	log.Info("run finished",
		zap.Float64s("final_position", last.Position),
		zap.Float64("final_value", last.Value),
		zap.Duration("elapsed", elapsed),
	)
	return h, nil
}

// Result is the outcome of one spec in RunAll.
type Result struct {
	Spec    Spec     `json:"spec"`
	History *History `json:"history,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// RunAll executes independent specs in parallel, at most the configured
// number of workers at a time. Results are returned in spec order; a failed
// spec does not affect the others.
func (r *Runner) RunAll(ctx context.Context, specs []Spec) []Result {
	results := make([]Result, len(specs))

	p := pool.New().WithMaxGoroutines(r.workers)
	for i, spec := range specs {
		i, spec := i, spec
		p.Go(func() {
			h, err := r.Run(ctx, spec)
			res := Result{Spec: spec, History: h, Err: err}
			if err != nil {
				res.Error = err.Error()
			}
			if h.Len() > 0 {
				if o, _, rerr := spec.Resolve(); rerr == nil {
					s := Summarize(o, h)
					res.Summary = &s
				}
			}
			results[i] = res
		})
	}
	p.Wait()

	return results
}

// metricLabels keeps label cardinality bounded: names outside the registries
// are reported as metrics.LabelUnknown.
func metricLabels(spec Spec) (variant, objective string) {
	variant, objective = metrics.LabelUnknown, metrics.LabelUnknown
	for _, v := range rules.Variants() {
		if v == spec.Variant {
			variant = v.String()
		}
	}
	for _, name := range objectives.Names() {
		if name == spec.Objective {
			objective = name
		}
	}
	return variant, objective
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, optimization.ErrNumericOverflow):
		return metrics.OutcomeOverflow
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	case errors.Is(err, optimization.ErrUnknownObjective),
		errors.Is(err, optimization.ErrInvalidHyperparameter),
		errors.Is(err, optimization.ErrDimensionMismatch):
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
