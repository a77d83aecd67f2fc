// Package auth resolves the identity behind a WebSocket upgrade request.
package auth

import (
	"context"
	"net/http"
)

// Identity is the user a connection acts as. The zero value is anonymous.
type Identity struct {
	UserID   string
	UserName string
}

// Anonymous returns the identity of an unauthenticated connection.
func Anonymous() Identity {
	return Identity{}
}

// IsAnonymous reports whether no user is attached.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// UserRef returns a pointer to the user ID for storage, or nil when anonymous.
func (i Identity) UserRef() *string {
	if i.IsAnonymous() {
		return nil
	}
	id := i.UserID
	return &id
}

// Resolver maps request headers and cookies to an Identity.
// Implementations never fail: any problem yields Anonymous().
type Resolver interface {
	Resolve(ctx context.Context, header http.Header, cookies []*http.Cookie) Identity
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, header http.Header, cookies []*http.Cookie) Identity

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, header http.Header, cookies []*http.Cookie) Identity {
	return f(ctx, header, cookies)
}

// Static returns a Resolver that always yields id.
func Static(id Identity) Resolver {
	return ResolverFunc(func(context.Context, http.Header, []*http.Cookie) Identity {
		return id
	})
}
