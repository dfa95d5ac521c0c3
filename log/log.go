// Package log defines the logging surface used across this module. It is
// shaped like the call-site usage of a structured key/value logger so that
// callers never depend on a concrete backend.
package log

import (
	"log/slog"
	"os"
)

// Logger is a structured, leveled logger.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New returns a Logger backed by log/slog writing to stderr.
func New() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, nil))}
}

// NewWith wraps an existing *slog.Logger (e.g. slog.Default()).
func NewWith(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }

func (s *slogLogger) With(kv ...any) Logger {
	return &slogLogger{l: s.l.With(kv...)}
}
