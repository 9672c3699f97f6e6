// Package middleware carries the HTTP middleware chain and the request
// context values it populates.
package middleware

import "context"

type userIDKey struct{}
type requestIDKey struct{}

// InjectUserID stores the authenticated user id. Handlers downstream of
// the JWT middleware trust it unconditionally.
func InjectUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated user id, or "" outside the JWT chain.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func injectRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
