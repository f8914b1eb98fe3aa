package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/descent/internal/config"
	"github.com/copyleftdev/descent/internal/logging"
)

// cli carries the state shared by subcommands.
type cli struct {
	logLevel  string
	logFormat string
	logger    *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "trajectory",
		Short: "Record gradient-based optimizer trajectories on test surfaces",
		Long: `trajectory runs momentum, Nesterov, Adagrad, RMSProp, Adam and SGD on
classic two-dimensional test functions and writes the recorded paths for
plotting and animation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l := logging.New(logging.ParseLevel(c.logLevel), cmd.ErrOrStderr()).WithFormat(c.logFormat)
			c.logger = logging.NewZapLogger(l)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", config.GetEnv("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", config.GetEnv("LOG_FORMAT", "text"), "Log format (json, text)")

	root.AddCommand(
		newRunCmd(c),
		newCompareCmd(c),
		newSurfacesCmd(),
		newFFmpegCmd(),
	)
	return root
}
