package trajectory

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// Summary condenses a history into the figures shown next to a rendering.
type Summary struct {
	Iterations   int       `json:"iterations"`
	InitialValue float64   `json:"initial_value"`
	FinalValue   float64   `json:"final_value"`
	BestValue    float64   `json:"best_value"`
	BestAt       int       `json:"best_iteration"`
	Final        []float64 `json:"final_position"`
	PathLength   float64   `json:"path_length"`

	// NearestMinimum is the stationary point a quasi-Newton search reaches
	// from the final position. It is nil for surfaces without a minimum or
	// when the search fails.
	NearestMinimum []float64 `json:"nearest_minimum,omitempty"`
	// DistanceToMinimum is the distance from the final position to
	// NearestMinimum.
	DistanceToMinimum float64 `json:"distance_to_minimum,omitempty"`
}

// Summarize computes the summary of h, a history recorded on o.
func Summarize(o objectives.Objective, h *History) Summary {
	var s Summary
	if h.Len() == 0 {
		return s
	}

	first, last := h.records[0], h.records[len(h.records)-1]
	s.Iterations = len(h.records) - 1
	s.InitialValue = first.Value
	s.FinalValue = last.Value
	s.Final = append([]float64(nil), last.Position...)
	s.BestValue = first.Value

	for i, r := range h.records {
		if r.Value < s.BestValue {
			s.BestValue = r.Value
			s.BestAt = i
		}
		if i > 0 {
			s.PathLength += floats.Distance(h.records[i-1].Position, r.Position, 2)
		}
	}

	if o.HasMinimum() {
		if m, ok := nearestMinimum(o, s.Final); ok {
			s.NearestMinimum = m
			s.DistanceToMinimum = floats.Distance(s.Final, m, 2)
		}
	}
	return s
}

// nearestMinimum runs BFGS with the analytic gradient from x.
func nearestMinimum(o objectives.Objective, x []float64) ([]float64, bool) {
	problem := optimize.Problem{
		Func: o.Value,
		Grad: func(grad, x []float64) {
			copy(grad, o.Gradient(x))
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-10,
		MajorIterations:   500,
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), x...), settings, &optimize.BFGS{})
	if err != nil || result == nil {
		return nil, false
	}
	return result.X, true
}
