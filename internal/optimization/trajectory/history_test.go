package trajectory

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/descent/internal/optimization"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
	"github.com/copyleftdev/descent/internal/optimization/rules"
)

// linearHistory records n+1 points whose single coordinate equals the
// iteration.
func linearHistory(t *testing.T, n int) *History {
	t.Helper()
	rec := NewRecorder(n)
	for i := 0; i <= n; i++ {
		require.NoError(t, rec.Append(Record{Iteration: i, Position: []float64{float64(i)}, Value: float64(i * i)}))
	}
	return rec.Finish()
}

func iterations(rs []Record) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Iteration
	}
	return out
}

func TestRecorder(t *testing.T) {
	t.Run("rejects out of order records", func(t *testing.T) {
		rec := NewRecorder(3)
		assert.Error(t, rec.Append(Record{Iteration: 1}))
		require.NoError(t, rec.Append(Record{Iteration: 0}))
		assert.Error(t, rec.Append(Record{Iteration: 0}))
		assert.Error(t, rec.Append(Record{Iteration: 2}))
		assert.Equal(t, 1, rec.Len())
	})

	t.Run("rejects appends after finish", func(t *testing.T) {
		rec := NewRecorder(1)
		require.NoError(t, rec.Append(Record{Iteration: 0}))
		rec.Finish()
		err := rec.Append(Record{Iteration: 1})
		assert.True(t, errors.Is(err, ErrRecorderFinished))
	})

	t.Run("keeps its own copy", func(t *testing.T) {
		rec := NewRecorder(0)
		pos := []float64{1, 2}
		require.NoError(t, rec.Append(Record{Iteration: 0, Position: pos}))
		pos[0] = 99
		assert.Equal(t, []float64{1, 2}, rec.Finish().At(0).Position)
	})
}

func TestHistoryIsImmutable(t *testing.T) {
	h := linearHistory(t, 3)

	rs := h.Records()
	rs[1].Position[0] = -1
	rs[1].Value = -1

	r := h.At(2)
	r.Position[0] = -2

	assert.Equal(t, []float64{1}, h.At(1).Position)
	assert.Equal(t, 1.0, h.At(1).Value)
	assert.Equal(t, []float64{2}, h.At(2).Position)
}

func TestHistoryDiagnosticsAreCopied(t *testing.T) {
	o, r := mustResolve(t, spec(objectives.Parabolic, rules.Adagrad, []float64{1, 1}, 2))
	h, err := Run(o, r, []float64{1, 1}, 2)
	require.NoError(t, err)

	d := h.At(1).Diagnostics
	require.NotNil(t, d)
	d.Accumulator[0] = -5

	assert.Equal(t, 4.0, h.At(1).Diagnostics.Accumulator[0])
}

func TestHistoryWindow(t *testing.T) {
	h := linearHistory(t, 30)

	tests := []struct {
		name        string
		until, back int
		want        []int
	}{
		{"last five of the first ten", 10, 5, []int{5, 6, 7, 8, 9}},
		{"back larger than until", 3, 20, []int{0, 1, 2}},
		{"no back limit", 4, 0, []int{0, 1, 2, 3}},
		{"until beyond end", 100, 3, []int{28, 29, 30}},
		{"empty", 0, 5, []int{}},
		{"negative until", -3, 5, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, iterations(h.Window(tt.until, tt.back)))
		})
	}
}

func TestHistoryJSON(t *testing.T) {
	o, r := mustResolve(t, spec(objectives.Parabolic, rules.Momentum, []float64{1, 2}, 1))
	h, err := Run(o, r, []float64{1, 2}, 1)
	require.NoError(t, err)

	data, err := json.Marshal(h)
	require.NoError(t, err)

	var decoded []struct {
		Iteration   int                       `json:"iteration"`
		Position    []float64                 `json:"position"`
		Value       float64                   `json:"value"`
		Diagnostics *optimization.Diagnostics `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Nil(t, decoded[0].Diagnostics)
	require.NotNil(t, decoded[1].Diagnostics)
	assert.Len(t, decoded[1].Diagnostics.Velocity, 2)
	assert.Nil(t, decoded[1].Diagnostics.Accumulator)
}

func TestSummarize(t *testing.T) {
	t.Run("parabola", func(t *testing.T) {
		o, r := mustResolve(t, spec(objectives.Parabolic, rules.Momentum, []float64{3, 3}, 50))
		h, err := Run(o, r, []float64{3, 3}, 50)
		require.NoError(t, err)

		s := Summarize(o, h)
		assert.Equal(t, 50, s.Iterations)
		assert.Equal(t, 18.0, s.InitialValue)
		assert.Equal(t, h.Last().Value, s.FinalValue)
		assert.LessOrEqual(t, s.BestValue, s.FinalValue)
		assert.Equal(t, h.At(s.BestAt).Value, s.BestValue)
		assert.Greater(t, s.PathLength, 0.0)

		require.Len(t, s.NearestMinimum, 2)
		assert.InDelta(t, 0, s.NearestMinimum[0], 1e-6)
		assert.InDelta(t, 0, s.NearestMinimum[1], 1e-6)
		assert.Greater(t, s.DistanceToMinimum, 0.0)
	})

	t.Run("himmelblau", func(t *testing.T) {
		o, r := mustResolve(t, spec(objectives.Himmelblau, rules.Adam, []float64{3.5, 2.5}, 100))
		h, err := Run(o, r, []float64{3.5, 2.5}, 100)
		require.NoError(t, err)

		s := Summarize(o, h)
		require.Len(t, s.NearestMinimum, 2)
		assert.InDelta(t, 0, o.Value(s.NearestMinimum), 1e-8)
	})

	t.Run("empty", func(t *testing.T) {
		o, _ := objectives.Lookup(objectives.Matyas, 2)
		assert.Equal(t, Summary{}, Summarize(o, nil))
	})
}
