// internal/auth/context.go
//
// Request-scoped principal.  The page wrapper attaches it after the
// router has resolved the signed-in identity, so middleware further down
// (e.g. acl.RequireRole) never talks to the backend itself.
//
// Usage
// -----
//     ctx = auth.WithUser(ctx, auth.Principal{ID: u.ID, Roles: []string{"admin"}})
//     p, ok := auth.FromContext(ctx)

package auth

import "context"

// Principal is the signed-in user as seen by request handlers.
type Principal struct {
	ID    string
	Email string
	Roles []string
}

// HasRole reports whether p carries any of names.
func (p Principal) HasRole(names ...string) bool {
	for _, have := range p.Roles {
		for _, want := range names {
			if have == want {
				return true
			}
		}
	}
	return false
}

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying p.
func WithUser(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, userKey{}, p)
}

// FromContext extracts the principal.  It returns (Principal{}, false) if
// no user is set.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(userKey{}).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}
