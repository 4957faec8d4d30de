package taskmate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailTaken         = "auth_email_taken"
	TextCodeAdminExists        = "auth_admin_exists"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeIdentityNotFound   = "auth_identity_not_found"
	TextCodeLedgerMismatch     = "auth_ledger_mismatch"
)

// ErrEmailTaken is returned when a registration email is already present.
var ErrEmailTaken = errors.New("user already exists with this email", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrAdminExists is returned when a second admin registration is attempted.
var ErrAdminExists = errors.New("admin already exists, only one admin is allowed", errors.CategoryConflict).
	WithTextCode(TextCodeAdminExists).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials covers both unknown email and bad password so the
// two causes stay indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token fails validation on expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers every non-expiry parse or signature failure.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrLedgerMismatch is returned when a token verifies cryptographically but
// no live ledger record matches it. Internal to the gateway, never surfaced.
var ErrLedgerMismatch = errors.New("token has no live ledger record", errors.CategoryAuth).
	WithTextCode(TextCodeLedgerMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty password input
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the bcrypt mismatch, pre-collapse
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
