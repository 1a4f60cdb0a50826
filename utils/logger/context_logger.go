package logger

import (
	"context"
	"log/slog"
)

// GlobalContext is the process-wide context logger, set by Init.
var GlobalContext *ContextLogger

type contextKey string

const (
	requestIDKey  contextKey = "leadhub.request.id"
	sessionIDKey  contextKey = "leadhub.session.id"
	userIDKey     contextKey = "leadhub.user.id"
	businessIDKey contextKey = "leadhub.business.id"
	leadIDKey     contextKey = "leadhub.lead.id"
)

// WithRequestID attaches a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSessionID attaches a session ID to the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithUserID attaches a user ID to the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// WithBusinessID attaches a business (tenant) ID to the context.
func WithBusinessID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, businessIDKey, id)
}

// WithLeadID attaches a lead ID to the context.
func WithLeadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, leadIDKey, id)
}

// ContextLogger enriches log records with request-scoped business keys
// carried on the context.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger creates a context logger over a base logger.
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger pre-populated with every business key
// present on the context.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger
	for _, key := range []contextKey{requestIDKey, sessionIDKey, userIDKey, businessIDKey, leadIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}
