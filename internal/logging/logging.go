// Package logging builds the process logger. Logs go to stderr only: stdout
// carries the result document.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w at warn level, or debug when
// verbose is set.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
