// Package objectives implements the analytic test surfaces the optimizers are
// run against. Every surface is stateless: the same point always produces the
// same value and gradient.
package objectives

import (
	"sort"

	"github.com/copyleftdev/descent/internal/optimization"
)

// Objective is a differentiable test surface with a closed-form gradient.
type Objective interface {
	// Name returns the surface's registered name.
	Name() string

	// Dim returns the number of input variables.
	Dim() int

	// Value evaluates the surface at x. len(x) must equal Dim.
	Value(x []float64) float64

	// Gradient returns the vector of partial derivatives at x.
	Gradient(x []float64) []float64

	// HasMinimum reports whether the surface is bounded below.
	HasMinimum() bool
}

// Surface names.
const (
	Parabolic  = "parabolic"
	Himmelblau = "himmelblau"
	Matyas     = "matyas"
	Saddle     = "saddle"
)

type constructor func(dim int) (Objective, error)

var registry = map[string]constructor{
	Parabolic: func(dim int) (Objective, error) {
		switch dim {
		case 0, 2:
			return parabolic2D{}, nil
		case 1:
			return parabolic1D{}, nil
		}
		return nil, dimensionError(Parabolic, dim, "1 or 2")
	},
	Himmelblau: planar(Himmelblau, himmelblau{}),
	Matyas:     planar(Matyas, matyas{}),
	Saddle:     planar(Saddle, saddle{}),
}

// planar returns a constructor for a surface defined only on the plane.
func planar(name string, o Objective) constructor {
	return func(dim int) (Objective, error) {
		if dim != 0 && dim != 2 {
			return nil, dimensionError(name, dim, "2")
		}
		return o, nil
	}
}

// Lookup resolves a surface by name for the given input dimension. A zero dim
// selects the surface's natural dimension (2). Unknown names fail with
// optimization.ErrUnknownObjective; there is no default surface.
func Lookup(name string, dim int) (Objective, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, optimization.UnknownObjective(name).WithOperation("lookup")
	}
	return ctor(dim)
}

// Names returns the supported surface names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckPoint verifies that x has the dimension of o.
func CheckPoint(o Objective, x []float64) error {
	if len(x) != o.Dim() {
		return dimensionError(o.Name(), len(x), dimString(o.Dim()))
	}
	return nil
}

func dimensionError(name string, got int, want string) error {
	return optimization.WrapErrorf(optimization.ErrDimensionMismatch,
		"%s accepts %s variables, got %d", name, want, got).
		WithComponent("objectives")
}

func dimString(d int) string {
	if d == 1 {
		return "1"
	}
	return "2"
}
