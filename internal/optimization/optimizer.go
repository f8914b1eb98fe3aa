// Package optimization holds the types shared by the trajectory engine:
// per-iteration diagnostics and the domain errors.
package optimization

import (
	"math"
)

// Diagnostics contains the algorithm-specific quantities produced by one
// update. Fields a variant does not define are left empty.
type Diagnostics struct {
	// Gradient is the gradient the update was computed from. For Nesterov
	// momentum it is taken at the look-ahead point.
	Gradient []float64 `json:"gradient"`

	// Step is the displacement applied to the position.
	Step []float64 `json:"step"`

	// StepNorm is the Euclidean length of Step.
	StepNorm float64 `json:"step_norm"`

	// Velocity is the momentum buffer after the update.
	Velocity []float64 `json:"velocity,omitempty"`

	// Accumulator is the squared-gradient accumulator r (Adagrad, RMSProp)
	// or Adam's second moment.
	Accumulator []float64 `json:"accumulator,omitempty"`

	// FirstMoment is Adam's first moment s.
	FirstMoment []float64 `json:"first_moment,omitempty"`

	// TimeStep is Adam's bias-correction step t.
	TimeStep int `json:"time_step,omitempty"`

	// LearningRate is the effective learning rate of a scheduled update.
	LearningRate float64 `json:"learning_rate,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Diagnostics) Clone() *Diagnostics {
	if d == nil {
		return nil
	}
	c := *d
	c.Gradient = cloneSlice(d.Gradient)
	c.Step = cloneSlice(d.Step)
	c.Velocity = cloneSlice(d.Velocity)
	c.Accumulator = cloneSlice(d.Accumulator)
	c.FirstMoment = cloneSlice(d.FirstMoment)
	return &c
}

// IsFinite reports whether every element of v is neither NaN nor infinite.
func IsFinite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func cloneSlice(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
