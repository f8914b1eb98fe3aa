package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/descent/internal/export"
)

func newFFmpegCmd() *cobra.Command {
	var (
		dir        string
		frameRate  int
		resolution string
		gif        bool
	)

	cmd := &cobra.Command{
		Use:   "ffmpeg NAME",
		Short: "Print the encoder commands for a rendered frame sequence",
		Long: `Prints the ffmpeg invocation that assembles numbered frames
(plot_000.png, plot_001.png, ...) into NAME.mp4 and, with --gif, the
palette commands converting it to NAME.gif. Nothing is executed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := export.NewVideo(args[0], dir)
			v.FrameRate = frameRate
			v.Resolution = resolution

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, shellJoin(v.Command()))
			if gif {
				for _, c := range v.GIFCommands() {
					fmt.Fprintln(out, shellJoin(c))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory holding the frames")
	cmd.Flags().IntVar(&frameRate, "fps", 29, "Input frame rate")
	cmd.Flags().StringVar(&resolution, "resolution", "1920x1080", "Output size WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&gif, "gif", false, "Also print the GIF conversion")
	return cmd
}

// shellJoin quotes arguments containing shell metacharacters.
func shellJoin(argv []string) string {
	out := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"$&;|<>()*?%\\") {
			out[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		} else {
			out[i] = a
		}
	}
	return strings.Join(out, " ")
}
