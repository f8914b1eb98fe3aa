package logging

import (
	"io"
	"os"
	"strings"
)

// Config selects the level, encoding and destination of a Logger. The zero
// value logs INFO and above as JSON to stderr.
type Config struct {
	Level  string
	Format string
	// Output is "stderr", "stdout" or a file path opened for appending.
	Output string
}

// NewLogger builds a Logger from cfg.
func NewLogger(cfg Config) (*Logger, error) {
	w, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	format := cfg.Format
	if format == "" {
		format = FormatJSON
	}
	return New(ParseLevel(cfg.Level), w).WithFormat(format), nil
}

// ParseLevel maps a level name, in any case, to its LogLevel. WARNING is
// accepted for WARN; anything unrecognised is InfoLevel.
func ParseLevel(name string) LogLevel {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(name)))
	if l == "WARNING" {
		return WarnLevel
	}
	if _, ok := severity[l]; ok {
		return l
	}
	return InfoLevel
}

func openOutput(dest string) (io.Writer, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}
