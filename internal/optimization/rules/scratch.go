package rules

import "gonum.org/v1/gonum/mat"

// vecPool recycles the temporary vectors a rule needs within one step.
// Each State owns its pool, so no locking is needed.
type vecPool struct {
	n    int
	free []*mat.VecDense
}

// get returns a zeroed vector of the pool's length.
func (p *vecPool) get() *mat.VecDense {
	if len(p.free) > 0 {
		v := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		v.Zero()
		return v
	}
	return mat.NewVecDense(p.n, nil)
}

// put returns vectors to the pool. Nothing may keep a reference to them.
func (p *vecPool) put(vs ...*mat.VecDense) {
	for _, v := range vs {
		if v != nil && v.Len() == p.n {
			p.free = append(p.free, v)
		}
	}
}

// scratch returns the state's pool, creating it on first use.
func (s *State) scratch() *vecPool {
	if s.pool == nil {
		s.pool = &vecPool{n: s.Dim(), free: make([]*mat.VecDense, 0, 4)}
	}
	return s.pool
}
