package export

import (
	"fmt"
	"path/filepath"

	"github.com/copyleftdev/descent/internal/optimization/trajectory"
)

// Frame is the slice of a trajectory drawn in one animation frame: the last
// Back records among the first Until.
type Frame struct {
	Index   int                 `json:"index"`
	Until   int                 `json:"until"`
	Records []trajectory.Record `json:"records"`
}

// Frames plans one frame per record. Frame k shows up to back records ending
// at record k, so the trail grows and then slides along the path.
func Frames(h *trajectory.History, back int) []Frame {
	frames := make([]Frame, h.Len())
	for k := range frames {
		frames[k] = Frame{Index: k, Until: k + 1, Records: h.Window(k+1, back)}
	}
	return frames
}

// Video describes an MP4 assembled from numbered frame images by ffmpeg.
type Video struct {
	Name       string // without extension
	Dir        string // directory holding the frames
	FrameRate  int
	Resolution string // WIDTHxHEIGHT
	PlotNaming string // printf pattern of frame files, without extension
	Format     string
}

// NewVideo returns a Video with the usual encoder settings: 29 fps,
// 1920x1080, frames named plot_000.png, plot_001.png, ...
func NewVideo(name, dir string) Video {
	return Video{
		Name:       name,
		Dir:        dir,
		FrameRate:  29,
		Resolution: "1920x1080",
		PlotNaming: "plot_%03d",
		Format:     "mp4",
	}
}

// File returns the output file name.
func (v Video) File() string {
	return v.Name + "." + v.Format
}

// FramePath returns the path of frame i.
func (v Video) FramePath(i int) string {
	return filepath.Join(v.Dir, fmt.Sprintf(v.PlotNaming, i)+".png")
}

// Command returns the ffmpeg argument vector that encodes the frames with
// libx264. The command is not executed.
func (v Video) Command() []string {
	return []string{
		"ffmpeg",
		"-framerate", fmt.Sprint(v.FrameRate),
		"-i", filepath.Join(v.Dir, v.PlotNaming+".png"),
		"-s:v", v.Resolution,
		"-c:v", "libx264",
		"-profile:v", "high",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		v.File(),
		"-y",
	}
}

// GIFCommands returns the two ffmpeg invocations that convert the MP4 to a
// GIF through a generated palette, followed by the palette cleanup.
func (v Video) GIFCommands() [][]string {
	palette := filepath.Join(v.Dir, "palette.png")
	gif := v.Name + ".gif"
	return [][]string{
		{"ffmpeg", "-i", v.File(), "-vf", "palettegen", palette, "-y"},
		{"ffmpeg", "-i", v.File(), "-i", palette, "-lavfi", "paletteuse", gif, "-y"},
		{"rm", "-f", palette},
	}
}
