package taskmate_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskmate "github.com/taskmate/go-taskmate"
)

// TestIdentity is a simple implementation of the Identity interface
type TestIdentity struct {
	id    string
	name  string
	email string
	role  string
}

func (t TestIdentity) ID() string    { return t.id }
func (t TestIdentity) Name() string  { return t.name }
func (t TestIdentity) Email() string { return t.email }
func (t TestIdentity) Role() string  { return t.role }

func newTestTokenService(expirationHours int) taskmate.TokenService {
	return taskmate.NewTokenService(
		[]byte("test-signing-key"),
		expirationHours,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)
}

func testIdentity() TestIdentity {
	return TestIdentity{
		id:    uuid.New().String(),
		name:  "Test User",
		email: "test@example.com",
		role:  string(taskmate.RoleUser),
	}
}

func TestTokenServiceGenerate(t *testing.T) {
	ts := newTestTokenService(24)
	identity := testIdentity()

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.Email(), claims.Subject())
	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, identity.Role(), claims.Role())
	assert.True(t, claims.HasRole(string(taskmate.RoleUser)))
	assert.False(t, claims.IsAtLeast(taskmate.RoleAdmin))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)

	jwtClaims, ok := claims.(*taskmate.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "test-issuer", jwtClaims.RegisteredClaims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test:audience"}, jwtClaims.RegisteredClaims.Audience)
	assert.NotEmpty(t, jwtClaims.RegisteredClaims.ID)

	t.Run("nil identity", func(t *testing.T) {
		_, err := ts.Generate(nil)
		assert.Error(t, err)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	ts := newTestTokenService(24)

	t.Run("expired token", func(t *testing.T) {
		expiredService := newTestTokenService(-1)
		token, err := expiredService.Generate(testIdentity())
		require.NoError(t, err)

		_, err = ts.Validate(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, taskmate.ErrTokenExpired)
		assert.True(t, taskmate.IsTokenExpiredError(err))
		assert.False(t, taskmate.IsMalformedError(err))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := ts.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, taskmate.IsMalformedError(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := taskmate.NewTokenService(
			[]byte("different-key"),
			24,
			"test-issuer",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)
		token, err := other.Generate(testIdentity())
		require.NoError(t, err)

		_, err = ts.Validate(token)
		require.Error(t, err)
		assert.False(t, taskmate.IsTokenExpiredError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := taskmate.NewTokenService(
			[]byte("test-signing-key"),
			24,
			"someone-else",
			jwt.ClaimStrings{"test:audience"},
			nil,
		)
		token, err := other.Generate(testIdentity())
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.Error(t, err)
	})

	t.Run("unsigned token is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "test@example.com",
			"exp": time.Now().Add(time.Hour).Unix(),
			"iss": "test-issuer",
			"aud": "test:audience",
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		require.Error(t, err)
		assert.True(t, taskmate.IsMalformedError(err))
	})
}

func TestSignClaims(t *testing.T) {
	ts := newTestTokenService(24)

	t.Run("nil claims", func(t *testing.T) {
		_, err := ts.SignClaims(nil)
		assert.Error(t, err)
	})

	t.Run("round trip preserves custom fields", func(t *testing.T) {
		now := time.Now()
		claims := &taskmate.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "custom@example.com",
				Audience:  jwt.ClaimStrings{"test:audience"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UID:      uuid.New().String(),
			UserRole: string(taskmate.RoleAdmin),
		}

		token, err := ts.SignClaims(claims)
		require.NoError(t, err)

		parsed, err := ts.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, claims.UID, parsed.UserID())
		assert.Equal(t, string(taskmate.RoleAdmin), parsed.Role())
		assert.True(t, parsed.IsAtLeast(taskmate.RoleUser))
	})
}
