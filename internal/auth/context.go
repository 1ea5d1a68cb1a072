// ABOUTME: Request context plumbing for verified token claims
// ABOUTME: Provides WithClaims/FromContext for propagating identity via context

package auth

import (
	"context"
)

// claimsContextKey is the key type for storing Claims in context.Context.
type claimsContextKey struct{}

// WithClaims returns a new context with the verified claims attached.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// FromContext retrieves the Claims from the context, returning nil if not present.
func FromContext(ctx context.Context) *Claims {
	val := ctx.Value(claimsContextKey{})
	if val == nil {
		return nil
	}
	claims, ok := val.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// MustFromContext retrieves the Claims from the context, panicking if not present.
// Only call from handlers behind the auth middleware.
func MustFromContext(ctx context.Context) *Claims {
	claims := FromContext(ctx)
	if claims == nil {
		panic("auth: Claims not found in context")
	}
	return claims
}
