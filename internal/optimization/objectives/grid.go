package objectives

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/descent/internal/optimization"
)

// Grid is a surface sampled on a regular lattice, the backdrop renderers plot
// trajectories onto.
type Grid struct {
	// X holds the sample coordinates along the first axis.
	X []float64
	// Y holds the sample coordinates along the second axis; nil for 1-D surfaces.
	Y []float64
	// Z holds the surface values, Z[i][j] = f(X[j], Y[i]). A 1-D surface
	// yields a single row.
	Z *mat.Dense
}

// Sample evaluates o on [lo, hi) in increments of step along every axis.
func Sample(o Objective, lo, hi, step float64) (*Grid, error) {
	if !optimization.IsFinite(lo, hi, step) || step <= 0 {
		return nil, optimization.InvalidHyperparameter("step", step, "(0, Inf)").WithComponent("objectives")
	}
	if hi <= lo {
		return nil, optimization.InvalidHyperparameter("hi", hi, "(lo, Inf)").WithComponent("objectives")
	}

	n := int(math.Ceil((hi - lo) / step))
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}

	if o.Dim() == 1 {
		z := mat.NewDense(1, n, nil)
		p := make([]float64, 1)
		for j, x := range axis {
			p[0] = x
			z.Set(0, j, o.Value(p))
		}
		return &Grid{X: axis, Z: z}, nil
	}

	z := mat.NewDense(n, n, nil)
	p := make([]float64, 2)
	for i, y := range axis {
		for j, x := range axis {
			p[0], p[1] = x, y
			z.Set(i, j, o.Value(p))
		}
	}
	return &Grid{X: axis, Y: append([]float64(nil), axis...), Z: z}, nil
}

// Rows returns Z as nested slices, convenient for JSON encoding.
func (g *Grid) Rows() [][]float64 {
	r, _ := g.Z.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, g.Z)
	}
	return rows
}
