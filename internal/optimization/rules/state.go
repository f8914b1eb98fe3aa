package rules

import (
	"gonum.org/v1/gonum/mat"
)

// State is the mutable state of a single optimizer run. It is owned by
// exactly one run and must not be shared between goroutines.
//
// Only the accumulators a rule uses are allocated; the others stay nil.
type State struct {
	// Position is the current point.
	Position *mat.VecDense

	// Iteration counts the updates applied so far.
	Iteration int

	// Velocity is the momentum buffer v.
	Velocity *mat.VecDense

	// Accumulator is the squared-gradient accumulator r, or Adam's second moment.
	Accumulator *mat.VecDense

	// FirstMoment is Adam's first moment s.
	FirstMoment *mat.VecDense

	// TimeStep is Adam's bias-correction step t.
	TimeStep int

	pool *vecPool
}

// NewState creates a state at a copy of initial with no accumulators.
func NewState(initial []float64) *State {
	return &State{
		Position: mat.NewVecDense(len(initial), append([]float64(nil), initial...)),
	}
}

// Dim returns the dimension of the state's vectors.
func (s *State) Dim() int {
	return s.Position.Len()
}

// Point returns a copy of the current position.
func (s *State) Point() []float64 {
	return vecCopy(s.Position)
}

// zeros allocates a zero vector of the state's dimension.
func (s *State) zeros() *mat.VecDense {
	return mat.NewVecDense(s.Dim(), nil)
}

func vecCopy(v *mat.VecDense) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
