package taskmate

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the authenticated User in the given context. The value is
// request scoped and never persisted.
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the authenticated user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// CurrentIdentity returns the authenticated identity, if any. Absence means
// the gateway admitted the request unauthenticated.
func CurrentIdentity(ctx context.Context) (Identity, bool) {
	user, ok := FromContext(ctx)
	if !ok || user == nil {
		return nil, false
	}
	return identityFromUser(user), true
}

// CurrentRole returns the authenticated privilege level, if any.
func CurrentRole(ctx context.Context) (Role, bool) {
	user, ok := FromContext(ctx)
	if !ok || user == nil {
		return "", false
	}
	return user.Role, true
}

// HasAtLeastRole checks the context identity against a minimum privilege.
// An unauthenticated context never passes.
func HasAtLeastRole(ctx context.Context, minRole Role) bool {
	role, ok := CurrentRole(ctx)
	if !ok {
		return false
	}
	return role.IsAtLeast(minRole)
}
