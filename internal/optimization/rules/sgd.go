package rules

import (
	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// SGDRule is plain gradient descent, x ← x − εₖ·g, with an optional linear
// learning-rate decay. For update k (0-based) and horizon τ:
//
//	εₖ = (1 − k/τ)·ε₀ + (k/τ)·ε_τ   for k < τ
//	εₖ = ε_τ                        for k ≥ τ
//
// where ε_τ = DecayRatio·ε₀. A zero DecaySteps disables the schedule.
type SGDRule struct {
	LearningRate float64 // ε₀
	DecaySteps   int     // τ
	DecayRatio   float64 // ε_τ/ε₀, usually 0.01
}

func (r *SGDRule) Variant() Variant { return SGD }

func (r *SGDRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	if r.DecaySteps < 0 {
		return invalid("decay_steps", r.DecaySteps, "[0, Inf)")
	}
	if r.DecaySteps > 0 && (!optimization.IsFinite(r.DecayRatio) || r.DecayRatio <= 0 || r.DecayRatio > 1) {
		return invalid("decay_ratio", r.DecayRatio, "(0, 1]")
	}
	return nil
}

func (r *SGDRule) Init(s *State) {}

// Rate returns the learning rate used by update k.
func (r *SGDRule) Rate(k int) float64 {
	if r.DecaySteps == 0 {
		return r.LearningRate
	}
	final := r.DecayRatio * r.LearningRate
	if k >= r.DecaySteps {
		return final
	}
	a := float64(k) / float64(r.DecaySteps)
	return (1-a)*r.LearningRate + a*final
}

func (r *SGDRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	g, err := gradientAt(o, s.Position)
	if err != nil {
		return nil, err
	}

	lr := r.Rate(s.Iteration)
	step := s.zeros()
	step.ScaleVec(-lr, g)

	d := move(s, g, step)
	d.LearningRate = lr
	return d, nil
}
