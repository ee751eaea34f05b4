package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/pkg/trace"
)

// NewLogger builds the production zap logger used by every process.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithTrace attaches the trace_id from the context to the logger, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
