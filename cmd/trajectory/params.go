package main

import (
	"github.com/spf13/pflag"

	"github.com/copyleftdev/descent/internal/optimization/rules"
)

// paramFlags binds one flag per hyperparameter. Only flags given on the
// command line override the variant's defaults.
type paramFlags struct {
	p  rules.Params
	fs *pflag.FlagSet
}

func bindParams(fs *pflag.FlagSet) *paramFlags {
	pf := &paramFlags{fs: fs}
	fs.Float64Var(&pf.p.LearningRate, "lr", 0, "Learning rate ε")
	fs.Float64Var(&pf.p.Momentum, "momentum", 0, "Momentum α (momentum, nesterov)")
	fs.Float64Var(&pf.p.Rho, "rho", 0, "Decay rate ρ (rmsprop)")
	fs.Float64Var(&pf.p.Rho1, "rho1", 0, "First moment decay ρ1 (adam)")
	fs.Float64Var(&pf.p.Rho2, "rho2", 0, "Second moment decay ρ2 (adam)")
	fs.Float64Var(&pf.p.Delta, "delta", 0, "Stabilizer δ (adagrad, rmsprop, adam)")
	fs.IntVar(&pf.p.DecaySteps, "decay-steps", 0, "Decay horizon τ (sgd)")
	fs.Float64Var(&pf.p.DecayRatio, "decay-ratio", 0, "Final learning rate ratio ε_τ/ε (sgd)")
	return pf
}

// resolve returns v's defaults with the explicitly set flags applied.
func (pf *paramFlags) resolve(v rules.Variant) rules.Params {
	p := rules.DefaultParams(v)
	set := func(name string, dst *float64, src float64) {
		if pf.fs.Changed(name) {
			*dst = src
		}
	}
	set("lr", &p.LearningRate, pf.p.LearningRate)
	set("momentum", &p.Momentum, pf.p.Momentum)
	set("rho", &p.Rho, pf.p.Rho)
	set("rho1", &p.Rho1, pf.p.Rho1)
	set("rho2", &p.Rho2, pf.p.Rho2)
	set("delta", &p.Delta, pf.p.Delta)
	set("decay-ratio", &p.DecayRatio, pf.p.DecayRatio)
	if pf.fs.Changed("decay-steps") {
		p.DecaySteps = pf.p.DecaySteps
	}
	return p
}
