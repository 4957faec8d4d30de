package gateway

import (
	"github.com/goliatone/go-router"

	taskmate "github.com/taskmate/go-taskmate"
)

// RequireIdentity rejects requests the gateway admitted unauthenticated.
// This is the deferred rejection point for every silent gateway exit.
func RequireIdentity() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if _, ok := taskmate.CurrentIdentity(ctx.Context()); !ok {
				return ctx.JSON(router.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}
			return next(ctx)
		}
	}
}

// RequireRole rejects authenticated requests below the minimum privilege,
// and unauthenticated requests outright.
func RequireRole(minRole taskmate.Role) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			role, ok := taskmate.CurrentRole(ctx.Context())
			if !ok {
				return ctx.JSON(router.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}

			if !role.IsAtLeast(minRole) {
				return ctx.JSON(router.StatusForbidden, map[string]string{
					"error": "insufficient privilege",
				})
			}

			return next(ctx)
		}
	}
}
