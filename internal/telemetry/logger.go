// Package telemetry sets up process logging and trace export.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds a logger writing to w. format is "json" or "console".
func NewLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch format {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// SetupLogger installs a stderr logger as the global zerolog logger and returns it.
func SetupLogger(level, format string) (zerolog.Logger, error) {
	l, err := NewLogger(os.Stderr, level, format)
	if err != nil {
		return l, err
	}
	zerolog.DurationFieldUnit = time.Millisecond
	log.Logger = l
	return l, nil
}
