package common

import (
	"context"
	"log/slog"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyMediaID   contextKey = "media_id"
	ContextKeyAttempt   contextKey = "attempt"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithMediaID tags the context with the media item being processed.
func WithMediaID(ctx context.Context, mediaID string) context.Context {
	return context.WithValue(ctx, ContextKeyMediaID, mediaID)
}

func MediaIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyMediaID).(string); ok {
		return id
	}
	return ""
}

// WithAttempt records the 1-based delivery attempt of the current job.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, ContextKeyAttempt, attempt)
}

func AttemptFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(ContextKeyAttempt).(int); ok {
		return n
	}
	return 0
}

// LoggerWithContext decorates logger with whatever job identifiers ctx carries.
func LoggerWithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := MediaIDFromContext(ctx); id != "" {
		logger = logger.With("media_id", id)
	}
	if n := AttemptFromContext(ctx); n > 0 {
		logger = logger.With("attempt", n)
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		logger = logger.With("req_id", rid)
	}
	return logger
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
