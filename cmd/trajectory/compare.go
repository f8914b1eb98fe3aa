package main

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/descent/internal/config"
	"github.com/copyleftdev/descent/internal/export"
	"github.com/copyleftdev/descent/internal/optimization/rules"
	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

type comparison struct {
	Variant rules.Variant       `json:"variant"`
	Params  rules.Params        `json:"params"`
	Summary *trajectory.Summary `json:"summary,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func newCompareCmd(c *cli) *cobra.Command {
	var (
		objective  string
		variants   []string
		initial    []float64
		iterations int
		workers    int
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run several update rules from the same start point",
		Long: `Runs each variant on one surface in parallel and prints a JSON summary
per variant. With --out-dir every trajectory is also written as
<variant>_<objective>.jsonl.`,
		Example: `  trajectory compare --objective himmelblau --initial 0,0 --variants momentum,nesterov,adam`,
		Args:    cobra.NoArgs,
	}
	params := bindParams(cmd.Flags())

	var all []string
	for _, v := range rules.Variants() {
		all = append(all, string(v))
	}

	cmd.Flags().StringVar(&objective, "objective", "himmelblau", "Objective surface")
	cmd.Flags().StringSliceVar(&variants, "variants", all, "Update rules to compare")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "Start point, comma separated (required)")
	cmd.Flags().IntVar(&iterations, "iterations", config.GetEnvAsInt("OPT_DEFAULT_ITERATIONS", 120), "Number of updates")
	cmd.Flags().IntVar(&workers, "workers", config.GetEnvAsInt("OPT_WORKER_COUNT", 4), "Runs executed at once")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory receiving one JSONL file per variant")
	_ = cmd.MarkFlagRequired("initial")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		specs := make([]trajectory.Spec, len(variants))
		for i, name := range variants {
			v := rules.Variant(name)
			specs[i] = trajectory.Spec{
				Objective:  objective,
				Variant:    v,
				Params:     params.resolve(v),
				Initial:    initial,
				Iterations: iterations,
			}
		}

		runner := trajectory.NewRunner(trajectory.WithLogger(c.logger), trajectory.WithWorkers(workers))
		results := runner.RunAll(cmd.Context(), specs)

		out := make([]comparison, len(results))
		for i, res := range results {
			out[i] = comparison{
				Variant: res.Spec.Variant,
				Params:  res.Spec.Params,
				Summary: res.Summary,
				Error:   res.Error,
			}
			if outDir != "" && res.History.Len() > 0 {
				path := filepath.Join(outDir, string(res.Spec.Variant)+"_"+objective+".jsonl")
				if err := writeOutput(nil, path, func(w io.Writer) error {
					return export.WriteJSONL(w, res.History)
				}); err != nil {
					return err
				}
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return cmd
}
