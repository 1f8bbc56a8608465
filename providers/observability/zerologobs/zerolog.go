// Package zerologobs adapts github.com/rs/zerolog to the
// observability.Logger contract for applications already standardized on
// zerolog's JSON output.
package zerologobs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/avolkoff/microllm/providers/observability"
)

// Logger routes pipeline events through a zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
}

// New creates a zerolog-backed logger.
func New(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

var _ observability.Logger = (*Logger)(nil)

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.emit(l.logger.Debug(), msg, attrs)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.emit(l.logger.Info(), msg, attrs)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.emit(l.logger.Warn(), msg, attrs)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.emit(l.logger.Error(), msg, attrs)
}

func (l *Logger) emit(event *zerolog.Event, msg string, attrs []observability.Attribute) {
	for _, attr := range attrs {
		event = event.Interface(attr.Key, attr.Value)
	}
	event.Msg(msg)
}
