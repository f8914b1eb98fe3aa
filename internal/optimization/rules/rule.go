// Package rules implements the first-order update rules: momentum, Nesterov
// momentum, Adagrad, RMSProp, Adam and scheduled plain SGD.
//
// Each variant is a concrete type carrying only its own hyperparameters. All
// of them are driven through the Rule interface:
//
//	rule, err := rules.New(rules.Adam, rules.DefaultParams(rules.Adam))
//	state := rules.NewState([]float64{0, 0})
//	rule.Init(state)
//	diag, err := rule.Step(objective, state)
package rules

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// Variant names an update rule.
type Variant string

// Supported variants.
const (
	Momentum Variant = "momentum"
	Nesterov Variant = "nesterov"
	Adagrad  Variant = "adagrad"
	RMSProp  Variant = "rmsprop"
	Adam     Variant = "adam"
	SGD      Variant = "sgd"
)

// Variants returns every supported variant in sorted order.
func Variants() []Variant {
	vs := []Variant{Momentum, Nesterov, Adagrad, RMSProp, Adam, SGD}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

// Rule is one optimization algorithm's per-iteration state transition.
type Rule interface {
	// Variant identifies the algorithm.
	Variant() Variant

	// Validate checks the hyperparameters.
	Validate() error

	// Init allocates the accumulators the rule needs on a fresh state.
	Init(s *State)

	// Step applies one update to s using the gradient of o and returns the
	// diagnostics of that update. Step increments s.Iteration.
	Step(o objectives.Objective, s *State) (*optimization.Diagnostics, error)
}

// Params is the flat wire form of every variant's hyperparameters. Only the
// fields belonging to the selected variant are read.
type Params struct {
	// LearningRate is ε.
	LearningRate float64 `json:"learning_rate"`
	// Momentum is α for momentum and Nesterov.
	Momentum float64 `json:"momentum,omitempty"`
	// Rho is RMSProp's decay rate ρ.
	Rho float64 `json:"rho,omitempty"`
	// Rho1 and Rho2 are Adam's first and second moment decay rates.
	Rho1 float64 `json:"rho1,omitempty"`
	Rho2 float64 `json:"rho2,omitempty"`
	// Delta is the stabilizing constant δ.
	Delta float64 `json:"delta,omitempty"`
	// DecaySteps is SGD's decay horizon τ; 0 keeps the learning rate constant.
	DecaySteps int `json:"decay_steps,omitempty"`
	// DecayRatio is ε_τ/ε₀ for SGD.
	DecayRatio float64 `json:"decay_ratio,omitempty"`
}

// DefaultParams returns the customary hyperparameters of a variant. Unknown
// variants get the zero Params.
func DefaultParams(v Variant) Params {
	switch v {
	case Momentum, Nesterov:
		return Params{LearningRate: 0.01, Momentum: 0.9}
	case Adagrad:
		return Params{LearningRate: 0.001, Delta: 1e-7}
	case RMSProp:
		return Params{LearningRate: 0.001, Rho: 0.9, Delta: 1e-6}
	case Adam:
		return Params{LearningRate: 0.001, Rho1: 0.9, Rho2: 0.999, Delta: 1e-8}
	case SGD:
		return Params{LearningRate: 0.001, DecayRatio: 0.01}
	}
	return Params{}
}

// New builds and validates the rule for variant v from p.
func New(v Variant, p Params) (Rule, error) {
	var r Rule
	switch v {
	case Momentum:
		r = &MomentumRule{LearningRate: p.LearningRate, Alpha: p.Momentum}
	case Nesterov:
		r = &NesterovRule{LearningRate: p.LearningRate, Alpha: p.Momentum}
	case Adagrad:
		r = &AdagradRule{LearningRate: p.LearningRate, Delta: p.Delta}
	case RMSProp:
		r = &RMSPropRule{LearningRate: p.LearningRate, Rho: p.Rho, Delta: p.Delta}
	case Adam:
		r = &AdamRule{LearningRate: p.LearningRate, Rho1: p.Rho1, Rho2: p.Rho2, Delta: p.Delta}
	case SGD:
		r = &SGDRule{LearningRate: p.LearningRate, DecaySteps: p.DecaySteps, DecayRatio: p.DecayRatio}
	default:
		return nil, optimization.WrapErrorf(optimization.ErrInvalidHyperparameter, "unknown variant %q", string(v)).
			WithComponent("rules")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Range checks shared by the variants.

func checkLearningRate(lr float64) error {
	if !optimization.IsFinite(lr) || lr < 0 {
		return invalid("learning_rate", lr, "[0, Inf)")
	}
	return nil
}

// checkHalfOpen requires v in [0, 1).
func checkHalfOpen(name string, v float64) error {
	if !optimization.IsFinite(v) || v < 0 || v >= 1 {
		return invalid(name, v, "[0, 1)")
	}
	return nil
}

// checkOpen requires v in (0, 1).
func checkOpen(name string, v float64) error {
	if !optimization.IsFinite(v) || v <= 0 || v >= 1 {
		return invalid(name, v, "(0, 1)")
	}
	return nil
}

func checkDelta(d float64) error {
	if !optimization.IsFinite(d) || d <= 0 {
		return invalid("delta", d, "(0, Inf)")
	}
	return nil
}

func invalid(name string, value interface{}, allowed string) error {
	return optimization.InvalidHyperparameter(name, value, allowed).WithComponent("rules")
}

// gradientAt evaluates the gradient of o at p and rejects non-finite values.
func gradientAt(o objectives.Objective, p *mat.VecDense) (*mat.VecDense, error) {
	g := o.Gradient(p.RawVector().Data)
	if !optimization.IsFinite(g...) {
		return nil, optimization.WrapErrorf(optimization.ErrNumericOverflow,
			"non-finite gradient %v", g).WithComponent("rules")
	}
	return mat.NewVecDense(len(g), g), nil
}

// finiteState rejects a non-finite accumulator or moment before the
// position is moved.
func finiteState(what string, v *mat.VecDense) error {
	if data := v.RawVector().Data; !optimization.IsFinite(data...) {
		return optimization.WrapErrorf(optimization.ErrNumericOverflow,
			"non-finite %s %v", what, data).WithComponent("rules")
	}
	return nil
}

// move adds step to the position and fills the shared diagnostics fields.
func move(s *State, g, step *mat.VecDense) *optimization.Diagnostics {
	s.Position.AddVec(s.Position, step)
	s.Iteration++

	d := vecCopy(step)
	return &optimization.Diagnostics{
		Gradient: vecCopy(g),
		Step:     d,
		StepNorm: floats.Norm(d, 2),
	}
}

// adaptiveStep stores Δ = −(ε/(δ+√r))·g coordinate-wise in dst.
func adaptiveStep(dst *mat.VecDense, lr, delta float64, r, g *mat.VecDense) {
	for i := 0; i < g.Len(); i++ {
		dst.SetVec(i, -(lr/(delta+math.Sqrt(r.AtVec(i))))*g.AtVec(i))
	}
}

func (v Variant) String() string {
	return string(v)
}
