package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "hayat/pkg/domain-errors"
)

func newService() *Service {
	return NewService("test-signing-key", "hayat", "hayat-api")
}

func TestIssueAndValidate(t *testing.T) {
	svc := newService()
	token, err := svc.Issue("user-1", "fam-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "fam-1", claims.HouseholdID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateRejects(t *testing.T) {
	svc := newService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("invalid-token-string")
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
		assert.Equal(t, "invalid token", dErrors.MessageOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := svc.Issue("user-1", "", -time.Hour)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.Equal(t, "token has expired", dErrors.MessageOf(err))
	})

	t.Run("other signing key", func(t *testing.T) {
		token, err := NewService("another-key", "hayat", "hayat-api").Issue("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		token, err := NewService("test-signing-key", "hayat", "elsewhere").Issue("user-1", "", time.Hour)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("no user", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "hayat",
				Audience:  []string{"hayat-api"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.Equal(t, "token has no user", dErrors.MessageOf(err))
	})
}

func TestValidatorAdapter(t *testing.T) {
	svc := newService()
	token, err := svc.Issue("user-7", "fam-2", time.Hour)
	require.NoError(t, err)

	claims, err := NewValidator(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, "fam-2", claims.HouseholdID)
	assert.NotEmpty(t, claims.JTI)
}
