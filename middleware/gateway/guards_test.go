package gateway_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskmate "github.com/taskmate/go-taskmate"
	"github.com/taskmate/go-taskmate/middleware/gateway"
)

// guardContext captures the JSON rejection the guards write.
type guardContext struct {
	*testContext
	status int
	body   any
}

func newGuardContext(stdCtx context.Context) *guardContext {
	base := newTestContext("/api/tasks")
	base.stdCtx = stdCtx
	return &guardContext{testContext: base}
}

func (g *guardContext) JSON(code int, val any) error {
	g.status = code
	g.body = val
	return nil
}

func authedContext(role taskmate.Role) context.Context {
	user := &taskmate.User{
		ID:    uuid.New(),
		Email: "guard@example.com",
		Role:  role,
	}
	return taskmate.WithContext(context.Background(), user)
}

func TestRequireIdentity(t *testing.T) {
	next := func(ctx router.Context) error {
		return ctx.Next()
	}

	t.Run("rejects anonymous requests", func(t *testing.T) {
		ctx := newGuardContext(context.Background())

		err := gateway.RequireIdentity()(next)(ctx)
		require.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, router.StatusUnauthorized, ctx.status)
	})

	t.Run("admits authenticated requests", func(t *testing.T) {
		ctx := newGuardContext(authedContext(taskmate.RoleUser))

		err := gateway.RequireIdentity()(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
		assert.Zero(t, ctx.status)
	})
}

func TestRequireRole(t *testing.T) {
	next := func(ctx router.Context) error {
		return ctx.Next()
	}

	t.Run("rejects anonymous requests with unauthorized", func(t *testing.T) {
		ctx := newGuardContext(context.Background())

		err := gateway.RequireRole(taskmate.RoleAdmin)(next)(ctx)
		require.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, router.StatusUnauthorized, ctx.status)
	})

	t.Run("rejects insufficient privilege with forbidden", func(t *testing.T) {
		ctx := newGuardContext(authedContext(taskmate.RoleUser))

		err := gateway.RequireRole(taskmate.RoleAdmin)(next)(ctx)
		require.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, router.StatusForbidden, ctx.status)
	})

	t.Run("admits sufficient privilege", func(t *testing.T) {
		ctx := newGuardContext(authedContext(taskmate.RoleAdmin))

		err := gateway.RequireRole(taskmate.RoleAdmin)(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("admin passes a user gate", func(t *testing.T) {
		ctx := newGuardContext(authedContext(taskmate.RoleAdmin))

		err := gateway.RequireRole(taskmate.RoleUser)(next)(ctx)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})
}
