package export

import (
	"encoding/csv"
	"io"

	"github.com/copyleftdev/descent/internal/optimization/objectives"
)

// WriteGridCSV writes g in long form, one sample per row: x,value for line
// surfaces and x,y,value for planar ones.
func WriteGridCSV(w io.Writer, g *objectives.Grid) error {
	cw := csv.NewWriter(w)

	planar := g.Y != nil
	header := []string{"x", "value"}
	if planar {
		header = []string{"x", "y", "value"}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rows, cols := g.Z.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			row := []string{formatFloat(g.X[j])}
			if planar {
				row = append(row, formatFloat(g.Y[i]))
			}
			row = append(row, formatFloat(g.Z.At(i, j)))
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
