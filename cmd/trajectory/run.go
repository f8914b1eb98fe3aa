package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/descent/internal/config"
	"github.com/copyleftdev/descent/internal/export"
	"github.com/copyleftdev/descent/internal/optimization/rules"
	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		objective  string
		variant    string
		initial    []float64
		iterations int
		format     string
		outPath    string
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Record one optimizer trajectory",
		Long: `Runs a single optimizer from a start point for a fixed number of
iterations and writes every recorded state, the start point included.`,
		Example: `  trajectory run --objective himmelblau --variant adam --initial 0,0 --iterations 200
  trajectory run --objective parabolic --variant momentum --initial 3 --lr 0.05 --format csv --out path.csv`,
		Args: cobra.NoArgs,
	}
	params := bindParams(cmd.Flags())

	cmd.Flags().StringVar(&objective, "objective", "parabolic", "Objective surface")
	cmd.Flags().StringVar(&variant, "variant", string(rules.Momentum), "Update rule")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "Start point, comma separated (required)")
	cmd.Flags().IntVar(&iterations, "iterations", config.GetEnvAsInt("OPT_DEFAULT_ITERATIONS", 120), "Number of updates")
	cmd.Flags().StringVar(&format, "format", string(export.JSONL), "Output format: jsonl, csv")
	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "Output path, - for stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a JSON summary to stderr")
	_ = cmd.MarkFlagRequired("initial")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v := rules.Variant(variant)
		spec := trajectory.Spec{
			Objective:  objective,
			Variant:    v,
			Params:     params.resolve(v),
			Initial:    initial,
			Iterations: iterations,
		}

		runner := trajectory.NewRunner(trajectory.WithLogger(c.logger))
		h, runErr := runner.Run(cmd.Context(), spec)
		if h.Len() == 0 {
			return runErr
		}

		// A run stopped by overflow still writes the records it produced.
		if err := writeOutput(cmd.OutOrStdout(), outPath, func(w io.Writer) error {
			return export.Write(w, export.Format(format), h)
		}); err != nil {
			return err
		}

		if summary {
			o, _, err := spec.Resolve()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.ErrOrStderr())
			enc.SetIndent("", "  ")
			if err := enc.Encode(trajectory.Summarize(o, h)); err != nil {
				return err
			}
		}
		return runErr
	}
	return cmd
}

// writeOutput runs write against stdout for "-" or against a created file.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
