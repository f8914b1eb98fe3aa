// Package export writes trajectories in the formats renderers consume and
// prepares the inputs of the external frame encoder.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

// Format names an output encoding.
type Format string

const (
	JSONL Format = "jsonl"
	CSV   Format = "csv"
)

// Write encodes h to w in format f.
func Write(w io.Writer, f Format, h *trajectory.History) error {
	switch f {
	case JSONL:
		return WriteJSONL(w, h)
	case CSV:
		return WriteCSV(w, h)
	}
	return fmt.Errorf("unsupported format %q", string(f))
}

// WriteJSONL writes one JSON object per record.
func WriteJSONL(w io.Writer, h *trajectory.History) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	enc := json.NewEncoder(bw)
	for i := 0; i < h.Len(); i++ {
		if err := enc.Encode(h.At(i)); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteCSV writes a header row followed by one row per record. Coordinates
// are named x and y (x only for one-dimensional runs). Diagnostics are
// flattened into step_norm, step_* and accumulator_* columns, left empty at
// iteration 0 and for variants that do not define them.
func WriteCSV(w io.Writer, h *trajectory.History) error {
	cw := csv.NewWriter(w)
	if h.Len() == 0 {
		cw.Flush()
		return cw.Error()
	}

	dim := len(h.At(0).Position)
	axes := []string{"x", "y"}[:dim]

	header := []string{"iteration"}
	header = append(header, axes...)
	header = append(header, "value", "step_norm")
	for _, a := range axes {
		header = append(header, "step_"+a)
	}
	for _, a := range axes {
		header = append(header, "accumulator_"+a)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < h.Len(); i++ {
		r := h.At(i)
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(r.Iteration))
		for _, v := range r.Position {
			row = append(row, formatFloat(v))
		}
		row = append(row, formatFloat(r.Value))

		var step, acc []float64
		if d := r.Diagnostics; d != nil {
			row = append(row, formatFloat(d.StepNorm))
			step, acc = d.Step, d.Accumulator
		} else {
			row = append(row, "")
		}
		row = appendColumns(row, step, dim)
		row = appendColumns(row, acc, dim)

		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// appendColumns appends dim cells, blank where vals has no entry.
func appendColumns(row []string, vals []float64, dim int) []string {
	for i := 0; i < dim; i++ {
		if i < len(vals) {
			row = append(row, formatFloat(vals[i]))
		} else {
			row = append(row, "")
		}
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
