package logger

import (
	"context"

	"go.uber.org/zap"

	"habitd/pkg/trace"
)

// New builds the process-wide production logger.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace returns a child logger carrying the trace_id from ctx, if any.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return l.With(zap.String("trace_id", traceID))
	}
	return l
}
