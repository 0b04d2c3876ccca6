package observability

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger provides structured logging with context awareness.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// Field represents a structured log field.
type Field = zap.Field

// ContextLogger is a zap-backed Logger that tags entries with the request ID.
type ContextLogger struct {
	base *zap.Logger
}

var _ Logger = (*ContextLogger)(nil)

// NewContextLogger wraps a zap logger.
func NewContextLogger(base *zap.Logger) *ContextLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{base: base}
}

// For returns the underlying logger bound to the request ID in ctx.
func (l *ContextLogger) For(ctx context.Context) *zap.Logger {
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		return l.base.With(zap.String("request_id", reqID))
	}
	return l.base
}

func (l *ContextLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Debug(msg, fields...)
}

func (l *ContextLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Info(msg, fields...)
}

func (l *ContextLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Warn(msg, fields...)
}

func (l *ContextLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Error(msg, fields...)
}
