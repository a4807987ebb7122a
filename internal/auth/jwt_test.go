package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "polaris", "polaris",
		time.Hour, 24*time.Hour)
}

func TestGenerateTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens("user-42", "expert", "expert@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	token, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-42", claims["sub"])
	assert.Equal(t, "expert", claims["role"])
	assert.Equal(t, "expert@example.com", claims["email"])

	refreshToken, err := a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	require.True(t, refreshToken.Valid)
}

func TestValidateAccessToken_RejectsRefreshSecret(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator()

	_, refresh, err := a.GenerateTokens("user-42", "user", "u@example.com")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(refresh)
	require.Error(t, err, "refresh token must not validate as an access token")
}

func TestValidateAccessToken_RejectsGarbage(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator()

	_, err := a.ValidateAccessToken("not-a-token")
	require.Error(t, err)
}
