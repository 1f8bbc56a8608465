package observability

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

var loggerContextKey = contextKey{}

// FromContext extracts a Logger from the context. Returns a no-op logger
// when none is present so call sites never need a nil check.
func FromContext(ctx context.Context) Logger {
	if logger, ok := LoggerFrom(ctx); ok {
		return logger
	}
	return Nop()
}

// LoggerFrom extracts a Logger from the context, reporting whether one was
// actually set. Use it when absence should fall back to something other
// than the no-op logger.
func LoggerFrom(ctx context.Context) (Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	logger, ok := ctx.Value(loggerContextKey).(Logger)
	return logger, ok
}

// ContextWith returns a new context carrying the given logger.
func ContextWith(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}
