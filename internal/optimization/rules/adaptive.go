package rules

import (
	"math"

	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// AdagradRule scales each coordinate by the root of its accumulated squared
// gradients:
//
//	r ← r + g²
//	Δ ← −(ε/(δ+√r))·g
//	x ← x + Δ
type AdagradRule struct {
	LearningRate float64 // ε
	Delta        float64 // δ, usually 1e-7
}

func (r *AdagradRule) Variant() Variant { return Adagrad }

func (r *AdagradRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	return checkDelta(r.Delta)
}

func (r *AdagradRule) Init(s *State) {
	s.Accumulator = s.zeros()
}

func (r *AdagradRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	g, err := gradientAt(o, s.Position)
	if err != nil {
		return nil, err
	}

	pool := s.scratch()
	sq, step := pool.get(), pool.get()
	defer pool.put(sq, step)

	sq.MulElemVec(g, g)
	s.Accumulator.AddVec(s.Accumulator, sq)
	if err := finiteState("accumulator", s.Accumulator); err != nil {
		return nil, err
	}

	adaptiveStep(step, r.LearningRate, r.Delta, s.Accumulator, g)
	d := move(s, g, step)
	d.Accumulator = vecCopy(s.Accumulator)
	return d, nil
}

// RMSPropRule is Adagrad with an exponentially decaying accumulator:
//
//	r ← ρ·r + (1−ρ)·g²
type RMSPropRule struct {
	LearningRate float64 // ε
	Rho          float64 // ρ, usually 0.9
	Delta        float64 // δ, usually 1e-6
}

func (r *RMSPropRule) Variant() Variant { return RMSProp }

func (r *RMSPropRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	if err := checkOpen("rho", r.Rho); err != nil {
		return err
	}
	return checkDelta(r.Delta)
}

func (r *RMSPropRule) Init(s *State) {
	s.Accumulator = s.zeros()
}

func (r *RMSPropRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	g, err := gradientAt(o, s.Position)
	if err != nil {
		return nil, err
	}

	pool := s.scratch()
	sq, step := pool.get(), pool.get()
	defer pool.put(sq, step)

	sq.MulElemVec(g, g)
	s.Accumulator.ScaleVec(r.Rho, s.Accumulator)
	s.Accumulator.AddScaledVec(s.Accumulator, 1-r.Rho, sq)
	if err := finiteState("accumulator", s.Accumulator); err != nil {
		return nil, err
	}

	adaptiveStep(step, r.LearningRate, r.Delta, s.Accumulator, g)
	d := move(s, g, step)
	d.Accumulator = vecCopy(s.Accumulator)
	return d, nil
}

// AdamRule keeps bias-corrected estimates of the gradient's first and second
// moments:
//
//	t ← t + 1
//	s ← ρ₁·s + (1−ρ₁)·g
//	r ← ρ₂·r + (1−ρ₂)·g²
//	ŝ = s/(1−ρ₁ᵗ), r̂ = r/(1−ρ₂ᵗ)
//	x ← x − ε·ŝ/(√r̂+δ)
type AdamRule struct {
	LearningRate float64 // ε, usually 0.001
	Rho1         float64 // ρ₁, usually 0.9
	Rho2         float64 // ρ₂, usually 0.999
	Delta        float64 // δ, usually 1e-8
}

func (r *AdamRule) Variant() Variant { return Adam }

func (r *AdamRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	if err := checkHalfOpen("rho1", r.Rho1); err != nil {
		return err
	}
	if err := checkHalfOpen("rho2", r.Rho2); err != nil {
		return err
	}
	return checkDelta(r.Delta)
}

func (r *AdamRule) Init(s *State) {
	s.FirstMoment = s.zeros()
	s.Accumulator = s.zeros()
	s.TimeStep = 0
}

func (r *AdamRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	g, err := gradientAt(o, s.Position)
	if err != nil {
		return nil, err
	}

	s.TimeStep++
	t := float64(s.TimeStep)

	s.FirstMoment.ScaleVec(r.Rho1, s.FirstMoment)
	s.FirstMoment.AddScaledVec(s.FirstMoment, 1-r.Rho1, g)

	pool := s.scratch()
	sq, step := pool.get(), pool.get()
	defer pool.put(sq, step)

	sq.MulElemVec(g, g)
	s.Accumulator.ScaleVec(r.Rho2, s.Accumulator)
	s.Accumulator.AddScaledVec(s.Accumulator, 1-r.Rho2, sq)
	if err := finiteState("first moment", s.FirstMoment); err != nil {
		return nil, err
	}
	if err := finiteState("second moment", s.Accumulator); err != nil {
		return nil, err
	}

	// With ρ = 0 the correction factor is 1 for every t ≥ 1.
	c1 := 1 - math.Pow(r.Rho1, t)
	c2 := 1 - math.Pow(r.Rho2, t)

	for i := 0; i < g.Len(); i++ {
		sHat := s.FirstMoment.AtVec(i) / c1
		rHat := s.Accumulator.AtVec(i) / c2
		step.SetVec(i, -r.LearningRate*sHat/(math.Sqrt(rHat)+r.Delta))
	}

	d := move(s, g, step)
	d.FirstMoment = vecCopy(s.FirstMoment)
	d.Accumulator = vecCopy(s.Accumulator)
	d.TimeStep = s.TimeStep
	return d, nil
}
