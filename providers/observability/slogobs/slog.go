// Package slogobs adapts Go's standard library log/slog to the
// observability.Logger contract, making it the lightweight default for
// applications that do not carry their own logging stack.
package slogobs

import (
	"context"
	"log/slog"

	"github.com/avolkoff/microllm/providers/observability"
)

// Logger routes pipeline events through a slog.Logger.
type Logger struct {
	logger *slog.Logger
}

// New creates a slog-backed logger. A nil argument uses slog.Default().
func New(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

var _ observability.Logger = (*Logger)(nil)

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.logger.DebugContext(ctx, msg, toArgs(attrs)...)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.logger.InfoContext(ctx, msg, toArgs(attrs)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.logger.WarnContext(ctx, msg, toArgs(attrs)...)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.logger.ErrorContext(ctx, msg, toArgs(attrs)...)
}

func toArgs(attrs []observability.Attribute) []any {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}
	return args
}
