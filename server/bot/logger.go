package bot

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a human readable console logger in development and a JSON
// logger otherwise.
func NewLogger(out io.Writer, development bool) zerolog.Logger {
	if development {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Logger()
}
