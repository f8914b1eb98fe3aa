package objectives

// parabolic1D is f(x) = x².
type parabolic1D struct{}

func (parabolic1D) Name() string     { return Parabolic }
func (parabolic1D) Dim() int         { return 1 }
func (parabolic1D) HasMinimum() bool { return true }

func (parabolic1D) Value(p []float64) float64 {
	return p[0] * p[0]
}

func (parabolic1D) Gradient(p []float64) []float64 {
	return []float64{2 * p[0]}
}

// parabolic2D is f(x, y) = x² + y².
type parabolic2D struct{}

func (parabolic2D) Name() string     { return Parabolic }
func (parabolic2D) Dim() int         { return 2 }
func (parabolic2D) HasMinimum() bool { return true }

func (parabolic2D) Value(p []float64) float64 {
	x, y := p[0], p[1]
	return x*x + y*y
}

func (parabolic2D) Gradient(p []float64) []float64 {
	return []float64{2 * p[0], 2 * p[1]}
}

// himmelblau is f(x, y) = (x² + y − 11)² + (x + y² − 7)², with four
// global minima of value 0.
type himmelblau struct{}

func (himmelblau) Name() string     { return Himmelblau }
func (himmelblau) Dim() int         { return 2 }
func (himmelblau) HasMinimum() bool { return true }

func (himmelblau) Value(p []float64) float64 {
	x, y := p[0], p[1]
	a := x*x + y - 11
	b := x + y*y - 7
	return a*a + b*b
}

func (himmelblau) Gradient(p []float64) []float64 {
	x, y := p[0], p[1]
	return []float64{
		4*x*x*x + 4*x*y - 42*x + 2*y*y - 14,
		4*y*y*y + 2*x*x - 26*y + 4*x*y - 22,
	}
}

// matyas is f(x, y) = 0.26(x² + y²) − 0.48xy.
type matyas struct{}

func (matyas) Name() string     { return Matyas }
func (matyas) Dim() int         { return 2 }
func (matyas) HasMinimum() bool { return true }

func (matyas) Value(p []float64) float64 {
	x, y := p[0], p[1]
	return 0.26*(x*x+y*y) - 0.48*x*y
}

func (matyas) Gradient(p []float64) []float64 {
	x, y := p[0], p[1]
	return []float64{0.52*x - 0.48*y, 0.52*y - 0.48*x}
}

// saddle is f(x, y) = x² − y². It is unbounded below along the y axis.
type saddle struct{}

func (saddle) Name() string     { return Saddle }
func (saddle) Dim() int         { return 2 }
func (saddle) HasMinimum() bool { return false }

func (saddle) Value(p []float64) float64 {
	x, y := p[0], p[1]
	return x*x - y*y
}

func (saddle) Gradient(p []float64) []float64 {
	return []float64{2 * p[0], -2 * p[1]}
}
