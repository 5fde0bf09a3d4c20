package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys, following OpenTelemetry semantic convention
	// style with an 'ask.' prefix.
	RequestIDKey ContextKey = "ask.request.id"
	UserKey      ContextKey = "ask.user"
	StageKey     ContextKey = "ask.pipeline.stage"
)

// WithRequestID adds the pipeline request ID to context for observability.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUser adds the asking user to context for observability.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// WithStage adds the pipeline stage to context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if user, ok := ctx.Value(UserKey).(string); ok && user != "" {
		attrs = append(attrs, slog.String("user", user))
	}
	if stage, ok := ctx.Value(StageKey).(string); ok && stage != "" {
		attrs = append(attrs, slog.String("stage", stage))
	}
	return attrs
}

// requestContextHandler stamps request id, user, and pipeline stage from the
// context onto every record, the same way traceContextHandler stamps trace
// ids. Callers opt in per call site by using the slog *Context variants.
type requestContextHandler struct {
	next slog.Handler
}

// NewRequestContextHandler wraps next with pipeline request correlation.
func NewRequestContextHandler(next slog.Handler) slog.Handler {
	return &requestContextHandler{next: next}
}

func (h *requestContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *requestContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		rec.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, rec)
}

func (h *requestContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *requestContextHandler) WithGroup(name string) slog.Handler {
	return &requestContextHandler{next: h.next.WithGroup(name)}
}

// ContextLogger hands out request-scoped loggers with the context values
// already bound, for call sites that log several times per request.
type ContextLogger struct {
	base        *slog.Logger
	serviceName string
}

// NewContextLogger creates a context-aware logger on top of the shared
// logger, falling back to slog's default when New has not run (tests).
func NewContextLogger(serviceName string) *ContextLogger {
	base := Logger
	if base == nil {
		base = slog.Default()
	}
	return &ContextLogger{base: base, serviceName: serviceName}
}

// WithContext returns a logger with the context values extracted and bound
// as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	log := cl.base.With(slog.String("service", cl.serviceName))
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return log
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return log.With(args...)
}
