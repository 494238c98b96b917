package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusCreated, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = env.do(t, http.MethodGet, "/api/v1/auth/user", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", body["user"].(map[string]any)["name"])

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])

	status, body = env.do(t, http.MethodGet, "/api/v1/auth/user", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", body["message"])
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "",
		"email":    "not-an-email",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	fields := body["errors"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	env.userToken(t, "taken", false)
	status, body = env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Someone",
		"email":    "taken@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.userToken(t, "grace", false)

	for _, creds := range []map[string]string{
		{"email": "grace@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		status, body := env.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid credentials", body["message"])
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/user/posts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization required", body["message"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/user/posts", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
}
