// Package trajectory drives optimizer runs and records the path they take.
package trajectory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/copyleftdev/descent/internal/optimization"
)

// Record is the state of a run after one iteration. Iteration 0 is the
// initial point, before any update.
type Record struct {
	Iteration   int                       `json:"iteration"`
	Position    []float64                 `json:"position"`
	Value       float64                   `json:"value"`
	Diagnostics *optimization.Diagnostics `json:"diagnostics,omitempty"`
}

func (r Record) clone() Record {
	r.Position = append([]float64(nil), r.Position...)
	r.Diagnostics = r.Diagnostics.Clone()
	return r
}

// History is the immutable, ordered sequence of records produced by one run.
// Accessors return copies, so callers cannot alter it.
type History struct {
	records []Record
}

// Len returns the number of records, i.e. applied updates plus one.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.records)
}

// At returns a copy of record i.
func (h *History) At(i int) Record {
	return h.records[i].clone()
}

// Last returns a copy of the final record.
func (h *History) Last() Record {
	return h.At(len(h.records) - 1)
}

// Records returns a copy of every record.
func (h *History) Records() []Record {
	if h == nil {
		return nil
	}
	out := make([]Record, len(h.records))
	for i, r := range h.records {
		out[i] = r.clone()
	}
	return out
}

// Window returns the last back records among the first until records, the
// slice a renderer draws for frame until. Out-of-range arguments are clamped;
// a non-positive back yields every record up to until.
func (h *History) Window(until, back int) []Record {
	if until > h.Len() {
		until = h.Len()
	}
	if until < 0 {
		until = 0
	}
	from := 0
	if back > 0 && until-back > 0 {
		from = until - back
	}
	out := make([]Record, 0, until-from)
	for _, r := range h.records[from:until] {
		out = append(out, r.clone())
	}
	return out
}

// Positions returns the position of every record, in order.
func (h *History) Positions() [][]float64 {
	out := make([][]float64, h.Len())
	for i, r := range h.records {
		out[i] = append([]float64(nil), r.Position...)
	}
	return out
}

// MarshalJSON encodes the history as an array of records.
func (h *History) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}
	return json.Marshal(h.records)
}

// ErrRecorderFinished is returned by Recorder.Append after Finish.
var ErrRecorderFinished = errors.New("recorder finished")

// Recorder accumulates records in iteration order. It is not safe for
// concurrent use; each run owns its recorder.
type Recorder struct {
	records  []Record
	finished bool
}

// maxPrealloc caps the capacity reserved up front; longer runs grow.
const maxPrealloc = 1 << 16

// NewRecorder creates a recorder sized for the given number of updates.
func NewRecorder(iterations int) *Recorder {
	if iterations < 0 {
		iterations = 0
	}
	if iterations >= maxPrealloc {
		iterations = maxPrealloc - 1
	}
	return &Recorder{records: make([]Record, 0, iterations+1)}
}

// Append adds r. Its iteration must be exactly one past the previous record,
// starting at 0. The recorder keeps its own copy of r.
func (rec *Recorder) Append(r Record) error {
	if rec.finished {
		return ErrRecorderFinished
	}
	if want := len(rec.records); r.Iteration != want {
		return fmt.Errorf("record out of order: got iteration %d, want %d", r.Iteration, want)
	}
	rec.records = append(rec.records, r.clone())
	return nil
}

// Len returns the number of records appended so far.
func (rec *Recorder) Len() int {
	return len(rec.records)
}

// Finish seals the recorder and returns the history. Later appends fail.
func (rec *Recorder) Finish() *History {
	rec.finished = true
	return &History{records: rec.records}
}
