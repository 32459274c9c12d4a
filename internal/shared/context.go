package shared

import "context"

// Identity describes the authenticated caller of a request.
type Identity struct {
	UserID   int64
	BranchID int64
	Email    string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity on the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext retrieves the identity set by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
