package domain

import "context"

// ContextKey is a type for context keys to avoid magic strings
type ContextKey string

const (
	// ContextKeyPrincipal is the key for the authenticated principal in the context
	ContextKeyPrincipal ContextKey = "principal"
)

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *AuthenticatedPrincipal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, principal)
}

// GetPrincipal retrieves the authenticated principal from the context
func GetPrincipal(ctx context.Context) (*AuthenticatedPrincipal, bool) {
	principal, ok := ctx.Value(ContextKeyPrincipal).(*AuthenticatedPrincipal)
	return principal, ok && principal != nil
}
