package logging

import (
	"context"
	"log/slog"

	"unsquash/internal/services"
)

// NoopHandler discards every record.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler             { return NoopHandler{} }

// NewNop returns a logger that discards everything, for tests and wiring
// code that cannot fail.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// WithContext returns logger extended with the request attributes stored in
// ctx. A nil logger is replaced by the no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(slog.String("request_id", id))
	}
	if archive, ok := services.ArchiveFromContext(ctx); ok {
		logger = logger.With(slog.String("archive", archive))
	}
	return logger
}
