package trajectory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/descent/internal/metrics"
	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
	"github.com/copyleftdev/descent/internal/optimization/optimtest"
	"github.com/copyleftdev/descent/internal/optimization/rules"
)

func spec(objective string, v rules.Variant, initial []float64, iterations int) Spec {
	return Spec{
		Objective:  objective,
		Variant:    v,
		Params:     rules.DefaultParams(v),
		Initial:    initial,
		Iterations: iterations,
	}
}

func mustResolve(t *testing.T, s Spec) (objectives.Objective, rules.Rule) {
	t.Helper()
	o, r, err := s.Resolve()
	require.NoError(t, err)
	return o, r
}

func TestRunRecordsInitialState(t *testing.T) {
	o, r := mustResolve(t, spec(objectives.Himmelblau, rules.Adam, []float64{1, 1}, 0))

	h, err := Run(o, r, []float64{1, 1}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())

	first := h.At(0)
	assert.Equal(t, 0, first.Iteration)
	assert.Equal(t, []float64{1, 1}, first.Position)
	assert.Equal(t, o.Value([]float64{1, 1}), first.Value)
	assert.Nil(t, first.Diagnostics, "no update has happened at iteration 0")
}

func TestRunIterationOrder(t *testing.T) {
	for _, v := range rules.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			o, r := mustResolve(t, spec(objectives.Matyas, v, []float64{2, -1}, 25))

			h, err := Run(o, r, []float64{2, -1}, 25)
			require.NoError(t, err)
			require.Equal(t, 26, h.Len())

			for i, rec := range h.Records() {
				assert.Equal(t, i, rec.Iteration)
				assert.Equal(t, o.Value(rec.Position), rec.Value)
				if i > 0 {
					require.NotNil(t, rec.Diagnostics)
					assert.Len(t, rec.Diagnostics.Step, 2)
				}
			}
		})
	}
}

func TestMomentumConvergesOnParabola(t *testing.T) {
	s := Spec{
		Objective:  objectives.Parabolic,
		Variant:    rules.Momentum,
		Params:     rules.Params{LearningRate: 0.01, Momentum: 0.9},
		Initial:    []float64{3, 3},
		Iterations: 50,
	}
	o, r := mustResolve(t, s)

	h, err := Run(o, r, s.Initial, s.Iterations)
	require.NoError(t, err)
	require.Equal(t, 51, h.Len())

	initial := optimtest.Distance(h.At(0).Position, []float64{0, 0})
	final := optimtest.Distance(h.Last().Position, []float64{0, 0})
	assert.Less(t, final, initial)
}

func TestAdamStaysBoundedOnHimmelblau(t *testing.T) {
	s := spec(objectives.Himmelblau, rules.Adam, []float64{0, 0}, 200)
	s.Params.LearningRate = 0.001
	o, r := mustResolve(t, s)

	h, err := Run(o, r, s.Initial, s.Iterations)
	require.NoError(t, err)
	require.Equal(t, 201, h.Len())

	for _, p := range h.Positions() {
		assert.Less(t, math.Abs(p[0]), 20.0)
		assert.Less(t, math.Abs(p[1]), 20.0)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	for _, v := range rules.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			s := spec(objectives.Himmelblau, v, []float64{-1, 0.5}, 120)
			o1, r1 := mustResolve(t, s)
			o2, r2 := mustResolve(t, s)

			h1, err := Run(o1, r1, s.Initial, s.Iterations)
			require.NoError(t, err)
			h2, err := Run(o2, r2, s.Initial, s.Iterations)
			require.NoError(t, err)

			require.Equal(t, h1.Len(), h2.Len())
			for i := 0; i < h1.Len(); i++ {
				a, b := h1.At(i), h2.At(i)
				optimtest.AssertBitIdentical(t, a.Position, b.Position)
				assert.Equal(t, math.Float64bits(a.Value), math.Float64bits(b.Value))
			}
		})
	}
}

func TestRunNumericOverflow(t *testing.T) {
	s := Spec{
		Objective:  objectives.Parabolic,
		Variant:    rules.SGD,
		Params:     rules.Params{LearningRate: 10},
		Initial:    []float64{1},
		Iterations: 1000,
	}
	o, r := mustResolve(t, s)

	h, err := Run(o, r, s.Initial, s.Iterations)
	require.Error(t, err)
	assert.True(t, errors.Is(err, optimization.ErrNumericOverflow), "got %v", err)

	require.NotNil(t, h)
	assert.Greater(t, h.Len(), 1)
	assert.Less(t, h.Len(), 1001)
	for i, rec := range h.Records() {
		assert.Equal(t, i, rec.Iteration)
		assert.True(t, optimization.IsFinite(rec.Position...))
		assert.True(t, optimization.IsFinite(rec.Value))
	}
}

func TestRunAccumulatorOverflow(t *testing.T) {
	for _, v := range []rules.Variant{rules.Adagrad, rules.Adam} {
		t.Run(v.String(), func(t *testing.T) {
			o, r := mustResolve(t, spec(objectives.Himmelblau, v, []float64{1e54, 0}, 3))

			h, err := Run(o, r, []float64{1e54, 0}, 3)
			require.Error(t, err)
			assert.True(t, errors.Is(err, optimization.ErrNumericOverflow), "got %v", err)
			assert.Equal(t, 1, h.Len())

			_, err = json.Marshal(h)
			assert.NoError(t, err)
		})
	}
}

func TestRunValidation(t *testing.T) {
	o, r := mustResolve(t, spec(objectives.Parabolic, rules.Momentum, []float64{1, 1}, 1))

	tests := []struct {
		name       string
		initial    []float64
		iterations int
		want       error
	}{
		{"negative iterations", []float64{1, 1}, -1, optimization.ErrInvalidHyperparameter},
		{"wrong dimension", []float64{1, 1, 1}, 5, optimization.ErrDimensionMismatch},
		{"empty point", nil, 5, optimization.ErrDimensionMismatch},
		{"non-finite point", []float64{math.Inf(1), 0}, 5, optimization.ErrInvalidHyperparameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Run(o, r, tt.initial, tt.iterations)
			assert.Nil(t, h)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSpecResolve(t *testing.T) {
	t.Run("unknown objective", func(t *testing.T) {
		s := spec("booth", rules.Adam, []float64{0, 0}, 10)
		s.Params.LearningRate = -1 // still reported as an unknown objective
		_, _, err := s.Resolve()
		assert.True(t, errors.Is(err, optimization.ErrUnknownObjective))
	})

	t.Run("one dimensional parabola", func(t *testing.T) {
		o, r := mustResolve(t, spec(objectives.Parabolic, rules.SGD, []float64{3}, 10))
		assert.Equal(t, 1, o.Dim())
		assert.Equal(t, rules.SGD, r.Variant())
	})
}

func TestRunner(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	runner := NewRunner(
		WithLogger(zap.New(core)),
		WithMetrics(metrics.New(reg)),
		WithMaxIterations(100),
	)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		h, err := runner.Run(ctx, spec(objectives.Parabolic, rules.Nesterov, []float64{3, 3}, 10))
		require.NoError(t, err)
		assert.Equal(t, 11, h.Len())
		assert.Equal(t, 1, logs.FilterMessage("run finished").Len())
		assert.Equal(t, 10, logs.FilterMessage("step").Len())
	})

	t.Run("unknown objective", func(t *testing.T) {
		h, err := runner.Run(ctx, spec("rastrigin", rules.Adam, []float64{0, 0}, 10))
		assert.Nil(t, h)
		assert.True(t, errors.Is(err, optimization.ErrUnknownObjective))
	})

	t.Run("iteration limit", func(t *testing.T) {
		_, err := runner.Run(ctx, spec(objectives.Parabolic, rules.Adam, []float64{0, 0}, 101))
		assert.True(t, errors.Is(err, optimization.ErrInvalidHyperparameter))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		h, err := runner.Run(cctx, spec(objectives.Matyas, rules.RMSProp, []float64{1, 1}, 50))
		assert.True(t, errors.Is(err, context.Canceled))
		require.NotNil(t, h)
		assert.Equal(t, 1, h.Len())
	})
}

func TestRejectedRunLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	runner := NewRunner(WithMetrics(metrics.New(reg)))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		s := spec(fmt.Sprintf("surface-%d", i), rules.Variant(fmt.Sprintf("rule-%d", i)), []float64{0, 0}, 5)
		_, err := runner.Run(ctx, s)
		require.Error(t, err)
	}

	n, err := testutil.GatherAndCount(reg, "descent_runs_total", "descent_iterations_total", "descent_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "rejected names share one series per metric")

	bad := spec(objectives.Matyas, rules.Adam, []float64{0, 0}, 5)
	bad.Params.LearningRate = -1
	_, err = runner.Run(ctx, bad)
	require.Error(t, err)

	variant, objective := metricLabels(bad)
	assert.Equal(t, "adam", variant)
	assert.Equal(t, objectives.Matyas, objective)

	variant, objective = metricLabels(spec("booth", "lbfgs", nil, 1))
	assert.Equal(t, metrics.LabelUnknown, variant)
	assert.Equal(t, metrics.LabelUnknown, objective)
}

func TestRunAll(t *testing.T) {
	runner := NewRunner(WithWorkers(2))
	specs := []Spec{
		spec(objectives.Himmelblau, rules.Momentum, []float64{0, 0}, 30),
		spec(objectives.Himmelblau, rules.Adam, []float64{0, 0}, 40),
		spec("unknown", rules.Adam, []float64{0, 0}, 10),
		spec(objectives.Saddle, rules.Adagrad, []float64{1, 0.1}, 20),
	}

	results := runner.RunAll(context.Background(), specs)
	require.Len(t, results, 4)

	assert.Equal(t, 31, results[0].History.Len())
	assert.Equal(t, 41, results[1].History.Len())
	assert.Equal(t, rules.Adam, results[1].Spec.Variant)
	require.NotNil(t, results[1].Summary)
	assert.Equal(t, 40, results[1].Summary.Iterations)

	assert.True(t, errors.Is(results[2].Err, optimization.ErrUnknownObjective))
	assert.NotEmpty(t, results[2].Error)
	assert.Nil(t, results[2].History)
	assert.Nil(t, results[2].Summary)

	require.NoError(t, results[3].Err)
	require.NotNil(t, results[3].Summary)
	assert.Nil(t, results[3].Summary.NearestMinimum, "the saddle has no minimum")
}

func TestRunObserved(t *testing.T) {
	r := NewRunner()

	var seen []int
	h, err := r.RunObserved(context.Background(), spec("matyas", rules.RMSProp, []float64{1, 2}, 6), func(rec Record) {
		seen = append(seen, rec.Iteration)
		assert.NotNil(t, rec.Diagnostics)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, seen)
	assert.Equal(t, 7, h.Len())
}
