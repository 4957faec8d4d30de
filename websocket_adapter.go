package taskmate

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface on top
// of the TokenService and the session ledger, so a socket opened with a
// revoked token is rejected just like an HTTP request would be.
type WSTokenValidator struct {
	tokenService TokenService
	repo         RepositoryManager
}

// NewWSTokenValidator creates a WebSocket token validator
func NewWSTokenValidator(tokenService TokenService, repo RepositoryManager) *WSTokenValidator {
	return &WSTokenValidator{
		tokenService: tokenService,
		repo:         repo,
	}
}

// Validate validates a token string and returns WebSocket-compatible auth claims
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.tokenService.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if w.repo != nil {
		ctx := context.Background()
		user, err := w.repo.Users().GetByEmail(ctx, claims.Subject())
		if err != nil {
			return nil, ErrIdentityNotFound
		}
		live, err := w.repo.Tokens().HasLiveMatch(ctx, user.ID, tokenString)
		if err != nil {
			return nil, err
		}
		if !live {
			return nil, ErrLedgerMismatch
		}
	}

	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts taskmate AuthClaims to go-router's WSAuthClaims interface
type WSAuthClaimsAdapter struct {
	claims AuthClaims
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject()
}

// UserID returns the user ID
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the user's role
func (w *WSAuthClaimsAdapter) Role() string {
	return w.claims.Role()
}

// CanRead checks if the user can read a specific resource
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return Role(w.claims.Role()).IsValid()
}

// CanEdit checks if the user can edit a specific resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return Role(w.claims.Role()).IsValid()
}

// CanCreate checks if the user can create a specific resource
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return Role(w.claims.Role()).IsValid()
}

// CanDelete checks if the user can delete a specific resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.claims.IsAtLeast(RoleAdmin)
}

// HasRole checks if the user has a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.HasRole(role)
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return w.claims.IsAtLeast(Role(minRole))
}

// NewWSAuthMiddleware creates a fully configured WebSocket authentication
// middleware backed by the authority's token service and ledger.
func (s *SessionAuthority) NewWSAuthMiddleware(config ...router.WSAuthConfig) router.WebSocketMiddleware {
	validator := NewWSTokenValidator(s.tokenService, s.repo)

	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = validator

	return router.NewWSAuth(cfg)
}

// WSAuthClaimsFromContext retrieves the underlying taskmate claims from a
// WebSocket connection context.
func WSAuthClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
