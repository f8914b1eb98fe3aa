package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/descent/internal/export"
	"github.com/copyleftdev/descent/internal/optimization/objectives"
	"github.com/copyleftdev/descent/internal/server"
)

func newSurfacesCmd() *cobra.Command {
	var (
		dim          int
		lo, hi, step float64
	)

	cmd := &cobra.Command{
		Use:   "surfaces [name]",
		Short: "List objective surfaces or sample one as CSV",
		Example: `  trajectory surfaces
  trajectory surfaces matyas --min -2 --max 2 --step 0.1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tDIMS\tMINIMUM")
				for _, s := range server.Surfaces() {
					dims := make([]string, len(s.Dims))
					for i, d := range s.Dims {
						dims[i] = fmt.Sprint(d)
					}
					fmt.Fprintf(tw, "%s\t%s\t%t\n", s.Name, strings.Join(dims, ","), s.HasMinimum)
				}
				return tw.Flush()
			}

			o, err := objectives.Lookup(args[0], dim)
			if err != nil {
				return err
			}
			g, err := objectives.Sample(o, lo, hi, step)
			if err != nil {
				return err
			}
			return export.WriteGridCSV(cmd.OutOrStdout(), g)
		},
	}

	cmd.Flags().IntVar(&dim, "dim", 0, "Dimension for surfaces that accept several (0 for the default)")
	cmd.Flags().Float64Var(&lo, "min", -5, "Lower sampling bound")
	cmd.Flags().Float64Var(&hi, "max", 5, "Upper sampling bound, exclusive")
	cmd.Flags().Float64Var(&step, "step", 0.25, "Sampling step")
	return cmd
}
