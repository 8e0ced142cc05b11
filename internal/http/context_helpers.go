package httpx

import "context"

// Unexported context key types avoid collisions across packages.
type (
	requestIDKey struct{}
	agentKey     struct{}
)

// SetRequestID returns a child context carrying the request id.
func SetRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or "" when none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// setAuthenticatedAgent marks the request as coming from an agent that presented a valid token.
func setAuthenticatedAgent(ctx context.Context) context.Context {
	return context.WithValue(ctx, agentKey{}, true)
}

// IsAuthenticatedAgent reports whether AgentAuth accepted the request's bearer token.
func IsAuthenticatedAgent(ctx context.Context) bool {
	ok, _ := ctx.Value(agentKey{}).(bool)
	return ok
}
