package taskmate

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// SessionAuthority orchestrates registration, login, and revocation. It is
// the sole writer of the token ledger.
type SessionAuthority struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
}

var _ Authenticator = (*SessionAuthority)(nil)

// NewSessionAuthority returns a new SessionAuthority
func NewSessionAuthority(repo RepositoryManager, cfg Config) *SessionAuthority {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &SessionAuthority{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *SessionAuthority) WithLogger(logger Logger) *SessionAuthority {
	s.logger = logger
	return s
}

// WithTokenService overrides the token service, mainly for tests.
func (s *SessionAuthority) WithTokenService(ts TokenService) *SessionAuthority {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this authority
func (s *SessionAuthority) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new identity and issues its first session token.
// Existence and single-admin checks both run before any write, inside the
// same transaction as the inserts, so a partial failure leaves no orphaned
// identity or token.
func (s *SessionAuthority) Register(ctx context.Context, name, email, password string, role Role) (string, error) {
	if !role.IsValid() {
		return "", errors.New("unknown role requested", errors.CategoryBadInput).
			WithMetadata(map[string]any{"role": role})
	}

	email = strings.TrimSpace(email)

	var token string
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.IsNotFound(err) {
			return errors.Wrap(err, errors.CategoryInternal, "failed to check existing email")
		}

		if role == RoleAdmin {
			count, err := s.repo.Users().CountByRoleTx(ctx, tx, RoleAdmin)
			if err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "failed to count admins")
			}
			if count > 0 {
				return ErrAdminExists
			}
		}

		hash, err := HashPassword(password)
		if err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
		}

		user := &User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
		}

		if user, err = s.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create user")
		}

		if token, err = s.tokenService.Generate(identityFromUser(user)); err != nil {
			return err
		}

		if _, err = s.repo.Tokens().RecordTx(ctx, tx, user, token); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not record session token")
		}

		return nil
	})

	if err != nil {
		s.logger.Error("Register failed", "email", email, "error", err)
		return "", err
	}

	return token, nil
}

// Authenticate verifies credentials and issues a fresh session token.
// Unknown email and bad password are indistinguishable to the caller. All
// prior live tokens for the identity are invalidated before the new record
// is written: after return exactly one record is live.
func (s *SessionAuthority) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)

	var token string
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if errors.IsNotFound(err) {
				return ErrInvalidCredentials
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during authentication")
		}

		if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
			if errors.Is(err, ErrMismatchedHashAndPassword) {
				return ErrInvalidCredentials
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
		}

		if err := s.repo.Tokens().InvalidateAllForUserTx(ctx, tx, user.ID); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not invalidate prior sessions")
		}

		if token, err = s.tokenService.Generate(identityFromUser(user)); err != nil {
			return err
		}

		if _, err = s.repo.Tokens().RecordTx(ctx, tx, user, token); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not record session token")
		}

		return nil
	})

	if err != nil {
		s.logger.Warn("Authenticate failed", "email", email, "error", err)
		return "", err
	}

	return token, nil
}

// Logout revokes every live session for the subject. Idempotent: revoking
// an already swept identity is a no-op.
func (s *SessionAuthority) Logout(ctx context.Context, subject string) error {
	user, err := s.repo.Users().GetByEmail(ctx, subject)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	if err := s.repo.Tokens().InvalidateAllForUser(ctx, user.ID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not revoke sessions")
	}

	return nil
}

// ClearAllSessions flags every ledger record. Called once at process start
// so tokens minted before a restart are rejected even while still
// cryptographically valid.
func (s *SessionAuthority) ClearAllSessions(ctx context.Context) error {
	if err := s.repo.Tokens().InvalidateEverything(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear session ledger")
	}
	return nil
}

// SessionFromToken validates a raw token and returns its session view.
func (s *SessionAuthority) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession resolves the session subject through the directory.
func (s *SessionAuthority) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	user, err := s.repo.Users().GetByEmail(ctx, session.GetSubject())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return identityFromUser(user), nil
}

type authIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:    user.ID.String(),
		name:  user.Name,
		email: user.Email,
		role:  string(user.Role),
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

var _ Identity = authIdentity{}
