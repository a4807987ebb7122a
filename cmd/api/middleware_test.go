package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"polaris/internal/auth"
	"polaris/internal/authority"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	return &application{
		logger: zap.NewNop().Sugar(),
		authenticator: auth.NewJWTAuthenticator(
			"access-secret", "refresh-secret", "polaris-test", "polaris-test",
			time.Hour, 24*time.Hour,
		),
	}
}

func TestAuthTokenMiddleware_PassesClaimsToHandler(t *testing.T) {
	app := newTestApp(t)

	accessToken, _, err := app.authenticator.GenerateTokens("u-42", "expert", "expert@example.com")
	require.NoError(t, err)

	var got authority.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = getClaimsFromContext(r)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	app.AuthTokenMiddleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-42", got.SubjectID)
	assert.Equal(t, authority.RoleExpert, got.Role)
	assert.Equal(t, "expert@example.com", got.Email)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestAuthTokenMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	app := newTestApp(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "not bearer", header: "Basic dXNlcjpwYXNz"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			app.AuthTokenMiddleware(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthTokenMiddleware_RejectsRefreshTokenAsAccess(t *testing.T) {
	app := newTestApp(t)

	_, refreshToken, err := app.authenticator.GenerateTokens("u-42", "user", "u@example.com")
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a refresh token")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+refreshToken)
	rec := httptest.NewRecorder()

	app.AuthTokenMiddleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
