package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	taskmate "github.com/taskmate/go-taskmate"
	"github.com/taskmate/go-taskmate/middleware/gateway"
)

func main() {
	ctx := context.Background()

	cfg, err := taskmate.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := taskmate.NewRepositoryManager(db)
	repo.MustValidate()

	authority := taskmate.NewSessionAuthority(repo, cfg)

	// Tokens never outlive a process restart.
	if err := authority.ClearAllSessions(ctx); err != nil {
		log.Fatalf("session sweep: %v", err)
	}

	notifier := taskmate.NewWebSocketNotifier()
	tasks := taskmate.NewTaskManager(repo).WithNotifier(notifier)
	users := taskmate.NewUserManager(repo)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "taskmate",
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	r := srv.Router()

	r.Use(gateway.New(gateway.Config{
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		AuthScheme:     cfg.GetAuthScheme(),
		ExemptPaths:    cfg.GetExemptPaths(),
		ExemptPrefixes: cfg.GetExemptPrefixes(),
		TokenValidator: authority.TokenService(),
		Identities:     repo.Users(),
		Ledger:         repo.Tokens(),
	}))

	r.Get("/health", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ws/tasks", taskFeedHandler(authority, notifier))

	requireIdentity := gateway.RequireIdentity()
	requireAdmin := gateway.RequireRole(taskmate.RoleAdmin)

	taskmate.RegisterAuthRoutes(r.Group("/api/auth"),
		taskmate.NewAuthController(authority))

	taskmate.RegisterTaskRoutes(r.Group("/api/tasks"),
		taskmate.NewTaskController(tasks), requireIdentity, requireAdmin)

	profiles := taskmate.NewProfileController(users)

	taskmate.RegisterProfileRoutes(r.Group("/api/profile"), profiles, requireIdentity)

	taskmate.RegisterUserRoutes(r.Group("/api/users"), profiles, requireAdmin)

	srv.Serve(cfg.ListenAddress)

	waitExitSignal()
}

// taskFeedHandler upgrades the connection, authenticates the token against
// the same ledger the HTTP gateway consults, and streams task events to the
// subject until the client goes away.
func taskFeedHandler(authority *taskmate.SessionAuthority, notifier *taskmate.WebSocketNotifier) router.HandlerFunc {
	chain := router.ChainWSMiddleware(
		router.NewWSRecover(),
		router.NewWSLogger(),
		authority.NewWSAuthMiddleware(),
	)

	return router.NewWSHandler(chain(func(ctx context.Context, client router.WSClient) error {
		claims, ok := taskmate.WSAuthClaimsFromContext(ctx)
		if !ok {
			client.Close(router.ClosePolicyViolation, "authentication required")
			return nil
		}

		subject := claims.Subject()
		notifier.Subscribe(subject, client)
		defer notifier.Unsubscribe(subject, client)

		for {
			if _, _, err := client.Conn().ReadMessage(); err != nil {
				return nil
			}
		}
	}))
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*taskmate.User)(nil),
		(*taskmate.Token)(nil),
		(*taskmate.Task)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
