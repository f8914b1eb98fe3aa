package rules

import (
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// MomentumRule is gradient descent with classical momentum:
//
//	v ← α·v − ε·g
//	x ← x + v
type MomentumRule struct {
	LearningRate float64 // ε
	Alpha        float64 // α, usually 0.9
}

func (r *MomentumRule) Variant() Variant { return Momentum }

func (r *MomentumRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	return checkHalfOpen("momentum", r.Alpha)
}

func (r *MomentumRule) Init(s *State) {
	s.Velocity = s.zeros()
}

func (r *MomentumRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	g, err := gradientAt(o, s.Position)
	if err != nil {
		return nil, err
	}
	return momentumUpdate(r.LearningRate, r.Alpha, s, g), nil
}

// NesterovRule is momentum with the gradient taken at the look-ahead point
// x + α·v.
type NesterovRule struct {
	LearningRate float64 // ε
	Alpha        float64 // α, usually 0.9
}

func (r *NesterovRule) Variant() Variant { return Nesterov }

func (r *NesterovRule) Validate() error {
	if err := checkLearningRate(r.LearningRate); err != nil {
		return err
	}
	return checkHalfOpen("momentum", r.Alpha)
}

func (r *NesterovRule) Init(s *State) {
	s.Velocity = s.zeros()
}

func (r *NesterovRule) Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error) {
	pool := s.scratch()
	ahead := pool.get()
	ahead.AddScaledVec(s.Position, r.Alpha, s.Velocity)

	g, err := gradientAt(o, ahead)
	pool.put(ahead)
	if err != nil {
		return nil, err
	}
	return momentumUpdate(r.LearningRate, r.Alpha, s, g), nil
}

func momentumUpdate(lr, alpha float64, s *State, g *mat.VecDense) *optimization.Diagnostics {
	s.Velocity.ScaleVec(alpha, s.Velocity)
	s.Velocity.AddScaledVec(s.Velocity, -lr, g)

	d := move(s, g, s.Velocity)
	d.Velocity = vecCopy(s.Velocity)
	return d
}
