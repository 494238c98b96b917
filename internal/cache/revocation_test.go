package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokeToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	ctx := context.Background()

	revoked, err := IsRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, rdb, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:jti-1"))

	mr.FastForward(2 * time.Hour)
	revoked, err = IsRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeTokenSkipsExpired(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	require.NoError(t, RevokeToken(context.Background(), rdb, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("blacklist:old"))
}

func TestNilClient(t *testing.T) {
	assert.NoError(t, RevokeToken(context.Background(), nil, "x", time.Now().Add(time.Hour)))
	revoked, err := IsRevoked(context.Background(), nil, "x")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := InitRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	_, err = InitRedis(context.Background(), "redis://%zz")
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = ParseOptions("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
