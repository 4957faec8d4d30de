// Package gateway intercepts every inbound request once and decides whether
// it carries an authenticated identity. Failures never surface to the
// client here: every bad-token branch falls through as unauthenticated and
// rejection is deferred to the authorization guards that consume the
// request context.
package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	taskmate "github.com/taskmate/go-taskmate"
)

var (
	defaultTokenLookup    = "header:" + router.HeaderAuthorization
	ErrTokenMissing       = errors.New("missing or malformed bearer credential")
	defaultExemptPaths    = []string{"/", "/favicon.ico", "/health"}
	defaultExemptPrefixes = []string{"/api/auth/", "/static/", "/assets/", "/ws/"}
)

// TokenValidator validates raw tokens into structured claims.
type TokenValidator interface {
	Validate(tokenString string) (taskmate.AuthClaims, error)
}

// SubjectResolver resolves a verified token subject to an identity record.
type SubjectResolver interface {
	GetByEmail(ctx context.Context, email string) (*taskmate.User, error)
}

// LedgerChecker cross-checks a cryptographically valid token against the
// ledger, so revoked or superseded tokens are rejected before expiry.
type LedgerChecker interface {
	HasLiveMatch(ctx context.Context, userID uuid.UUID, tokenString string) (bool, error)
}

type Config struct {
	// Filter skips the gateway entirely when it returns true.
	Filter func(router.Context) bool
	// ExemptPaths are admitted unauthenticated without token processing.
	ExemptPaths []string
	// ExemptPrefixes are prefix-matched against the request path.
	ExemptPrefixes []string
	// ContextKey is the router locals key the claims are stored under.
	ContextKey string
	// TokenLookup is a comma separated list of "<source>:<name>" entries,
	// e.g. "header:Authorization,cookie:taskmate_session".
	TokenLookup string
	AuthScheme  string

	TokenValidator TokenValidator
	Identities     SubjectResolver
	Ledger         LedgerChecker

	Logger taskmate.Logger
}

// New builds the gateway middleware. The decision procedure is a linear
// chain with one terminal success state; every other exit calls Next with
// no identity in the context.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := getDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if cfg.isExempt(ctx.Path()) {
				return ctx.Next()
			}

			raw, err := extractRawToken(ctx, cfg.getExtractors())
			if err != nil || raw == "" {
				return ctx.Next()
			}

			claims, user, ok := cfg.authenticate(ctx.Context(), raw)
			if !ok {
				return ctx.Next()
			}

			ctx.Locals(cfg.ContextKey, claims)

			stdCtx := taskmate.WithClaimsContext(ctx.Context(), claims)
			stdCtx = taskmate.WithContext(stdCtx, user)
			ctx.SetContext(stdCtx)

			return ctx.Next()
		}
	}
}

// authenticate runs steps three through five of the decision procedure:
// codec verification, subject resolution, ledger cross-check.
func (cfg Config) authenticate(ctx context.Context, raw string) (taskmate.AuthClaims, *taskmate.User, bool) {
	claims, err := cfg.TokenValidator.Validate(raw)
	if err != nil {
		cfg.Logger.Debug("gateway token validation failed", "error", err)
		return nil, nil, false
	}

	user, err := cfg.Identities.GetByEmail(ctx, claims.Subject())
	if err != nil {
		cfg.Logger.Debug("gateway subject not found", "subject", claims.Subject())
		return nil, nil, false
	}

	live, err := cfg.Ledger.HasLiveMatch(ctx, user.ID, raw)
	if err != nil {
		cfg.Logger.Error("gateway ledger lookup failed", "error", err)
		return nil, nil, false
	}
	if !live {
		cfg.Logger.Debug("gateway token has no live ledger record", "subject", claims.Subject())
		return nil, nil, false
	}

	return claims, user, true
}

func (cfg Config) isExempt(path string) bool {
	for _, p := range cfg.ExemptPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.ExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("GATEWAY: middleware configuration: TokenValidator is required.")
	}

	if cfg.Identities == nil {
		panic("GATEWAY: middleware configuration: Identities resolver is required.")
	}

	if cfg.Ledger == nil {
		panic("GATEWAY: middleware configuration: Ledger checker is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ExemptPaths == nil {
		cfg.ExemptPaths = defaultExemptPaths
	}

	if cfg.ExemptPrefixes == nil {
		cfg.ExemptPrefixes = defaultExemptPrefixes
	}

	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	return cfg
}

type noopLogger struct{}

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
func (noopLogger) Error(format string, args ...any) {}
