package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaniflow/vaniflow/internal/auth"
	"github.com/vaniflow/vaniflow/internal/domain"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, hash, ":")

	assert.True(t, auth.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, auth.VerifyPassword("wrong password", hash))
}

func TestPasswordHashIsSalted(t *testing.T) {
	a, err := auth.HashPassword("same input")
	require.NoError(t, err)
	b, err := auth.HashPassword("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedStored(t *testing.T) {
	assert.False(t, auth.VerifyPassword("x", "no-separator"))
	assert.False(t, auth.VerifyPassword("x", "zz:not-hex"))
	assert.False(t, auth.VerifyPassword("x", ""))
}

func TestTokenRoundTrip(t *testing.T) {
	manager := auth.NewTokenManager("test-secret")

	token, err := manager.Issue(auth.Identity{ID: "u-1", Email: "a@b.co", Role: "organization"})
	require.NoError(t, err)

	identity, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.ID)
	assert.Equal(t, "a@b.co", identity.Email)
	assert.Equal(t, "organization", identity.Role)
}

func TestTokenVerify_Failures(t *testing.T) {
	manager := auth.NewTokenManager("test-secret")
	token, err := manager.Issue(auth.Identity{ID: "u-1", Email: "a@b.co", Role: "user"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := auth.NewTokenManager("other-secret").Verify(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Verify("not.a.jwt")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := manager.Verify("")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
