// Package logger constructs the slog loggers and carries them in the context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Default is the default logger.  It logs to stderr and debug logging can be
// enabled by setting the DEBUG environment variable to 1.  For example:
//
//	DEBUG=1 alepe-mcp
var Default = New(os.Stderr, envLevel(), false)

// Silent is a logger that does not log anything.
var Silent = slog.New(slog.DiscardHandler)

func envLevel() slog.Level {
	if os.Getenv("DEBUG") == "1" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns the logger writing to w with the given level.  If json is set,
// the records are written as JSON objects, otherwise as text.
func New(w io.Writer, level slog.Leveler, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel parses the level name, one of DEBUG, INFO, WARN or ERROR,
// case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.TrimSpace(s)))
	return lvl, err
}

type logCtx uint8

const (
	logCtxKey logCtx = iota
)

// NewContext returns a new context with the logger.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey, l)
}

// FromContext returns the logger from the context.  If no logger is found,
// the Default logger is returned.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(logCtxKey).(*slog.Logger); ok {
		return l
	}
	return Default
}
