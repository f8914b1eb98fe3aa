package objectives

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/optimtest"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		surface string
		dim     int
		wantDim int
		wantErr error
	}{
		{name: "parabolic natural", surface: Parabolic, dim: 0, wantDim: 2},
		{name: "parabolic 1d", surface: Parabolic, dim: 1, wantDim: 1},
		{name: "parabolic 2d", surface: Parabolic, dim: 2, wantDim: 2},
		{name: "parabolic 3d", surface: Parabolic, dim: 3, wantErr: optimization.ErrDimensionMismatch},
		{name: "himmelblau", surface: Himmelblau, dim: 2, wantDim: 2},
		{name: "matyas 1d", surface: Matyas, dim: 1, wantErr: optimization.ErrDimensionMismatch},
		{name: "saddle", surface: Saddle, dim: 0, wantDim: 2},
		{name: "unknown", surface: "rosenbrock", dim: 2, wantErr: optimization.ErrUnknownObjective},
		{name: "empty name", surface: "", dim: 0, wantErr: optimization.ErrUnknownObjective},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Lookup(tt.surface, tt.dim)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.surface, o.Name())
			assert.Equal(t, tt.wantDim, o.Dim())
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{Himmelblau, Matyas, Parabolic, Saddle}, Names())
}

func TestValues(t *testing.T) {
	tests := []struct {
		surface string
		dim     int
		x       []float64
		want    float64
	}{
		{Parabolic, 1, []float64{-3}, 9},
		{Parabolic, 2, []float64{3, 4}, 25},
		{Himmelblau, 2, []float64{3, 2}, 0},
		{Himmelblau, 2, []float64{0, 0}, 170},
		{Matyas, 2, []float64{1, 1}, 0.04},
		{Saddle, 2, []float64{1, 2}, -3},
	}

	for _, tt := range tests {
		t.Run(tt.surface, func(t *testing.T) {
			o, err := Lookup(tt.surface, tt.dim)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, o.Value(tt.x), 1e-12)
		})
	}
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	points := [][]float64{
		{0, 0}, {3, 3}, {-2.5, 1.5}, {1, -4}, {0.1, 0.2}, {-3.7, -3.2},
	}

	for _, name := range Names() {
		for _, dim := range []int{1, 2} {
			o, err := Lookup(name, dim)
			if err != nil {
				continue
			}
			for _, p := range points {
				x := p[:dim]
				t.Run(name, func(t *testing.T) {
					got := o.Gradient(x)
					want := optimtest.NumericalGradient(o.Value, x)
					optimtest.AssertFloat64SlicesEqual(t, got, want, 1e-4)
				})
			}
		}
	}
}

func TestPurity(t *testing.T) {
	for _, name := range Names() {
		o, err := Lookup(name, 0)
		require.NoError(t, err)

		x := []float64{1.25, -0.75}
		v1, g1 := o.Value(x), o.Gradient(x)
		v2, g2 := o.Value(x), o.Gradient(x)

		assert.Equal(t, math.Float64bits(v1), math.Float64bits(v2), name)
		optimtest.AssertBitIdentical(t, g1, g2)
		assert.Equal(t, []float64{1.25, -0.75}, x, "input must not be modified")
	}
}

func TestCheckPoint(t *testing.T) {
	o, err := Lookup(Himmelblau, 2)
	require.NoError(t, err)

	assert.NoError(t, CheckPoint(o, []float64{1, 2}))
	err = CheckPoint(o, []float64{1})
	assert.True(t, errors.Is(err, optimization.ErrDimensionMismatch))
}

func TestHasMinimum(t *testing.T) {
	for _, name := range []string{Parabolic, Himmelblau, Matyas} {
		o, _ := Lookup(name, 0)
		assert.True(t, o.HasMinimum(), name)
	}
	o, _ := Lookup(Saddle, 0)
	assert.False(t, o.HasMinimum())
}

func TestSample(t *testing.T) {
	t.Run("planar", func(t *testing.T) {
		o, _ := Lookup(Parabolic, 2)
		g, err := Sample(o, -5, 5, 0.25)
		require.NoError(t, err)

		require.Len(t, g.X, 40)
		require.Len(t, g.Y, 40)
		assert.Equal(t, -5.0, g.X[0])
		assert.Equal(t, 4.75, g.X[39])

		r, c := g.Z.Dims()
		assert.Equal(t, 40, r)
		assert.Equal(t, 40, c)
		assert.Equal(t, 50.0, g.Z.At(0, 0))
		// Z[i][j] = f(X[j], Y[i])
		assert.InDelta(t, o.Value([]float64{g.X[3], g.Y[7]}), g.Z.At(7, 3), 1e-12)
		assert.Len(t, g.Rows(), 40)
	})

	t.Run("line", func(t *testing.T) {
		o, _ := Lookup(Parabolic, 1)
		g, err := Sample(o, -4, 4, 1)
		require.NoError(t, err)

		assert.Nil(t, g.Y)
		r, c := g.Z.Dims()
		assert.Equal(t, 1, r)
		assert.Equal(t, 8, c)
		assert.Equal(t, 16.0, g.Z.At(0, 0))
	})

	t.Run("invalid", func(t *testing.T) {
		o, _ := Lookup(Matyas, 2)
		_, err := Sample(o, -1, 1, 0)
		assert.True(t, errors.Is(err, optimization.ErrInvalidHyperparameter))
		_, err = Sample(o, 1, -1, 0.5)
		assert.True(t, errors.Is(err, optimization.ErrInvalidHyperparameter))
	})
}
