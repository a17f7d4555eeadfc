package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// WithNewTraceID stores a fresh UUID trace ID in ctx and returns it.
// Ingestion runs use it as their run ID.
func WithNewTraceID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithTraceID(ctx, id), id
}

// WithComponent tags every record of logger with the owning component.
// A nil logger falls back to the global logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
