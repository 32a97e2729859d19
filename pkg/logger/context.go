package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With derives a context whose logger carries extra attributes. Later calls
// stack on top of earlier ones.
func With(ctx context.Context, args ...any) context.Context {
	return Attach(ctx, From(ctx).With(args...))
}

func Attach(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// From falls back to the process logger when ctx has none.
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return LoggerWrapper()
	}
	l, ok := ctx.Value(contextKey{}).(*slog.Logger)
	if !ok || l == nil {
		return LoggerWrapper()
	}
	return l
}
