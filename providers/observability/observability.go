// Package observability defines the structured logging contract threaded
// through the invocation pipeline. The pipeline never logs to a concrete
// backend directly: it emits events through the [Logger] interface, and
// applications pick an adapter (slogobs, zerologobs) or supply their own.
package observability

import (
	"context"
	"time"
)

// Logger provides leveled structured logging.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute represents a key-value pair of event metadata.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates an error attribute.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: "error", Value: ""}
	}
	return Attribute{Key: "error", Value: err.Error()}
}

// Nop returns a Logger that discards every event.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...Attribute) {}
func (nopLogger) Info(context.Context, string, ...Attribute)  {}
func (nopLogger) Warn(context.Context, string, ...Attribute)  {}
func (nopLogger) Error(context.Context, string, ...Attribute) {}
