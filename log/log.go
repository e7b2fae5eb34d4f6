// Package log is a thin structured-logging wrapper over log/slog, kept in
// the key/value call shape the rest of the codebase has always used
// (log.Info("msg", "k", v, ...)) so call sites read the same regardless of
// what sits underneath.
package log

import (
	"context"
	"log/slog"
	"os"
)

var root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Logger is the call surface every package logs through.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	With(ctx ...any) Logger
}

type logger struct{ s *slog.Logger }

// Root returns the process-wide default logger.
func Root() Logger { return logger{root} }

// New returns a logger scoped with the given key/value pairs, e.g.
// log.New("component", "dag-storage").
func New(ctx ...any) Logger { return logger{root.With(ctx...)} }

func (l logger) Trace(msg string, ctx ...any) { l.s.Log(context.Background(), slog.LevelDebug-4, msg, ctx...) }
func (l logger) Debug(msg string, ctx ...any) { l.s.Debug(msg, ctx...) }
func (l logger) Info(msg string, ctx ...any)  { l.s.Info(msg, ctx...) }
func (l logger) Warn(msg string, ctx ...any)  { l.s.Warn(msg, ctx...) }
func (l logger) Error(msg string, ctx ...any) { l.s.Error(msg, ctx...) }
func (l logger) With(ctx ...any) Logger       { return logger{l.s.With(ctx...)} }

// SetHandler swaps the root slog handler, e.g. for tests that want to
// capture output or for an operator wiring JSON logging.
func SetHandler(h slog.Handler) { root = slog.New(h) }
