package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// newLogger returns the slog logger handed to the library packages,
// backed by a zerolog console writer on w. Verbose lowers the level from
// warn to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	zl := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()

	return slog.New(slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler())
}
