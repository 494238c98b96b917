package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t, "owner", false)
	_, otherToken := env.userToken(t, "other", false)

	slug := env.createPost(t, ownerToken, "Hello World")
	assert.Equal(t, "hello-world", slug)

	status, body := env.do(t, http.MethodGet, "/api/v1/posts/"+slug, nil, "")
	require.Equal(t, http.StatusOK, status)
	post := body["post"].(map[string]any)
	assert.Contains(t, post["content_html"], "<strong>markdown</strong>")
	assert.Contains(t, body, "trending_score")
	assert.Contains(t, body, "sentiment_distribution")

	status, body = env.do(t, http.MethodGet, "/api/v1/posts", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)
	assert.Equal(t, float64(1), body["pagination"].(map[string]any)["total"])

	status, _ = env.do(t, http.MethodPut, "/api/v1/posts/"+slug, map[string]any{"title": "Hijacked"}, otherToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPut, "/api/v1/posts/"+slug, map[string]any{"title": "Hello Again"}, ownerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post updated successfully", body["message"])
	assert.Equal(t, slug, body["post"].(map[string]any)["slug"])

	status, body = env.do(t, http.MethodDelete, "/api/v1/posts/"+slug, nil, ownerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post deleted successfully", body["message"])

	status, body = env.do(t, http.MethodGet, "/api/v1/posts/"+slug, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userToken(t, "author", false)

	status, body := env.do(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"status":         "live",
		"featured_image": "not a url",
		"tags":           []uint{999},
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	fields := body["errors"].(map[string]any)
	for _, f := range []string{"title", "content", "status", "featured_image", "tags"} {
		assert.Contains(t, fields, f)
	}
}

func TestDraftsHiddenFromOthers(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t, "owner", false)
	_, otherToken := env.userToken(t, "other", false)

	status, body := env.do(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":   "Work In Progress",
		"content": "Not ready yet.",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, status)
	slug := body["post"].(map[string]any)["slug"].(string)
	assert.Equal(t, "draft", body["post"].(map[string]any)["status"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/posts/"+slug, nil, otherToken)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodGet, "/api/v1/posts/"+slug, nil, ownerToken)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/user/posts", nil, ownerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)
}

func TestSearchPosts_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/v1/posts/search", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestSearchPosts_FallsBackToDatabase(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userToken(t, "author", false)
	env.createPost(t, token, "Gradient Descent Explained")
	env.createPost(t, token, "Cooking Pasta")

	status, body := env.do(t, http.MethodGet, "/api/v1/posts/search?q=gradient", nil, "")
	require.Equal(t, http.StatusOK, status)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "Gradient Descent Explained", posts[0].(map[string]any)["title"])
}
