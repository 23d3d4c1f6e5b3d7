// Package logger configures the zerolog loggers used across the batch run
// and moves them through contexts so every stage logs with the same setup.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey types the context keys this package owns.
type ContextKey string

// LoggerKey locates the run logger in a context.
const LoggerKey ContextKey = "logger"

// New builds the default console logger: RFC3339 timestamps and caller
// annotations on every line, writing to stdout.
func New() zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(cw).With().Timestamp().Caller().Logger()
}

// NewWithLevel builds the default logger filtered to the named level
// ("debug", "info", "warn", "error"). Unrecognized names mean info.
func NewWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return New().Level(lvl)
}

// NewWithWriter builds a logger that writes raw JSON to w; tests use this
// to capture output.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// WithContext stores the logger in ctx for downstream stages.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger when
// the context carries none.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithComponent tags every event of the returned logger with the emitting
// component's name.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
