// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logger := logging.Setup(slog.LevelInfo) // also installs it as slog.Default
//	logger := logging.New(w, slog.LevelDebug)
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tint logger writing to w at the given level.
// Color is disabled unless w is the process's stderr.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level <= slog.LevelDebug,
		NoColor:    w != io.Writer(os.Stderr),
	}))
}

// Setup installs a stderr logger at level as the slog default and returns it.
func Setup(level slog.Level) *slog.Logger {
	logger := New(os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}
