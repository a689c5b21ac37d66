package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCreatesFirstAdmin(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":        "admin@test.com",
		"password":     "SecurePass123!",
		"display_name": "Admin",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	var auth AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, "Bearer", auth.TokenType)
	assert.Equal(t, "admin@test.com", auth.User.Email)
	assert.Equal(t, "admin", auth.User.Role)

	// A second setup must fail once any user exists.
	resp = ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":        "second@test.com",
		"password":     "SecurePass123!",
		"display_name": "Second",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestLoginAndCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":        "admin@test.com",
		"password":     "SecurePass123!",
		"display_name": "Admin",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// Wrong password is rejected without leaking which part failed.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@test.com",
		"password": "WrongPassword1!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@test.com",
		"password": "SecurePass123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Login failed: %s", resp.Body.String())

	var auth AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)

	resp = ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+auth.AccessToken)
	require.Equal(t, http.StatusOK, resp.Code)

	var me UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &me))
	assert.Equal(t, "admin@test.com", me.Email)
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/auth/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/auth/me", "Authorization: Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
