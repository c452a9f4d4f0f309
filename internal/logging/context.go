package logging

import (
	"context"
	"log/slog"

	"relpack/internal/services"
)

// WithContext derives a logger carrying any run and step identity stored on
// the context. A nil logger falls back to a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if runID, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(String(FieldRunID, runID))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		logger = logger.With(String(FieldStep, step))
	}
	return logger
}
