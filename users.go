package taskmate

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// ProfileUpdate carries the optional fields of a profile change. Empty
// fields are left untouched; a password change requires the current one.
type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

// UserManager is the profile surface over the identity directory. It never
// touches roles or the token ledger.
type UserManager struct {
	repo   RepositoryManager
	logger Logger
}

func NewUserManager(repo RepositoryManager) *UserManager {
	return &UserManager{
		repo:   repo,
		logger: defLogger{},
	}
}

func (u *UserManager) WithLogger(l Logger) *UserManager {
	u.logger = l
	return u
}

// GetProfile resolves a user by email.
func (u *UserManager) GetProfile(ctx context.Context, email string) (*User, error) {
	user, err := u.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListAll returns every user. Callers gate this behind admin authorization.
func (u *UserManager) ListAll(ctx context.Context) ([]*User, error) {
	return u.repo.Users().ListAll(ctx)
}

// UpdateProfile applies the requested changes to the identity found by the
// current email. Email changes are checked for collisions; password changes
// verify the current password first.
func (u *UserManager) UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (*User, error) {
	user, err := u.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}

	if next := strings.TrimSpace(update.Email); next != "" && next != email {
		if _, err := u.repo.Users().GetByEmail(ctx, next); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.IsNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email collision")
		}
		user.Email = next
	}

	if update.CurrentPassword != "" && update.NewPassword != "" {
		if err := ComparePasswordAndHash(update.CurrentPassword, user.PasswordHash); err != nil {
			return nil, ErrInvalidCredentials
		}

		hash, err := HashPassword(update.NewPassword)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "invalid new password")
		}
		user.PasswordHash = hash
	}

	updated, err := u.repo.Users().Update(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update profile")
	}

	return updated, nil
}
