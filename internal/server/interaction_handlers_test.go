package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t, "owner", false)
	_, readerToken := env.userToken(t, "reader", false)
	slug := env.createPost(t, ownerToken, "Likeable")

	status, body := env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/like", nil, readerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["like_count"])

	status, body = env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/like", nil, readerToken)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body["code"])

	status, body = env.do(t, http.MethodDelete, "/api/v1/posts/"+slug+"/like", nil, readerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["like_count"])

	status, _ = env.do(t, http.MethodDelete, "/api/v1/posts/"+slug+"/like", nil, readerToken)
	assert.Equal(t, http.StatusConflict, status)
}

func TestViewDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t, "owner", false)
	_, readerToken := env.userToken(t, "reader", false)
	slug := env.createPost(t, ownerToken, "Viewable")

	for i := 0; i < 3; i++ {
		status, body := env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/view", nil, readerToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["view_count"])
	}
}

func TestBookmarkShareAndHistory(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.userToken(t, "owner", false)
	_, readerToken := env.userToken(t, "reader", false)
	slug := env.createPost(t, ownerToken, "Keep This")

	status, _ := env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/bookmark", nil, readerToken)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/bookmark", nil, readerToken)
	assert.Equal(t, http.StatusConflict, status)

	for i := 0; i < 2; i++ {
		status, _ = env.do(t, http.MethodPost, "/api/v1/posts/"+slug+"/share", nil, readerToken)
		require.Equal(t, http.StatusOK, status)
	}

	status, body := env.do(t, http.MethodGet, "/api/v1/user/interactions", nil, readerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["interactions"], 3)

	status, body = env.do(t, http.MethodGet, "/api/v1/user/interactions?type=share", nil, readerToken)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["interactions"], 2)

	status, _ = env.do(t, http.MethodGet, "/api/v1/user/interactions?type=poke", nil, readerToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestInteractionsOnMissingPost(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userToken(t, "reader", false)

	for _, path := range []string{"like", "view", "bookmark", "share"} {
		status, _ := env.do(t, http.MethodPost, "/api/v1/posts/nope/"+path, nil, token)
		assert.Equal(t, http.StatusNotFound, status, path)
	}
}
