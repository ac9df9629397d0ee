package auth

import (
	"context"

	"github.com/shelfapi/shelf/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the context key for storing the caller Identity.
	identityContextKey contextKey = "identity"
)

// ContextWithIdentity adds the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the authenticated identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

// UserIDFromContext is a convenience function to get the user ID from context.
// Returns false if not authenticated.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return 0, false
	}
	return identity.UserID, true
}
