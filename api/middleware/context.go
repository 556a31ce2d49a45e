package middleware

import "context"

type contextKey string

const (
	ctxSession      contextKey = "session"
	ctxHandoffScope contextKey = "handoff_scope"
)

// SessionFromContext returns the shopper's backend session, or "".
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSession).(string); ok {
		return v
	}
	return ""
}

// HandoffScopeFromContext returns the browser's handoff scope, or "".
func HandoffScopeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxHandoffScope).(string); ok {
		return v
	}
	return ""
}

// WithSession injects the session identifier into the context.
func WithSession(ctx context.Context, session string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}

// WithHandoffScope injects the handoff scope into the context.
func WithHandoffScope(ctx context.Context, scope string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxHandoffScope, scope)
}
