package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/calldash/server/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenStoreRoundtrip(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	store := NewRedisTokenStore(rdb, "test")

	tok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, model.Token{AccessToken: "abc", ExpiresAt: expires}))

	ttl := mr.TTL("test:oauth:token")
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	tok, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.True(t, tok.ExpiresAt.Equal(expires))

	require.NoError(t, store.Delete(ctx))
	tok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenStoreSkipsExpired(t *testing.T) {
	mr, rdb := newRedis(t)
	store := NewRedisTokenStore(rdb, "test")

	require.NoError(t, store.Save(context.Background(), model.Token{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
	assert.False(t, mr.Exists("test:oauth:token"))
}

func TestSessionLifecycle(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	sessions := NewRedisSessionRepository(rdb, "test", time.Hour)

	s, err := sessions.Create(ctx, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Username)

	mr.FastForward(59 * time.Minute)
	_, err = sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("test:session:"+s.ID), "reads extend the session")

	require.NoError(t, sessions.Delete(ctx, s.ID))
	got, err = sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionExpiresAndRejectsGarbage(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	sessions := NewRedisSessionRepository(rdb, "test", time.Minute)

	s, err := sessions.Create(ctx, "admin")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	got, err := sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = sessions.Get(ctx, "../../etc/passwd")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUsersCache(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewRedisUsersCache(rdb, "test", 5*time.Minute)

	users, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, users)

	require.NoError(t, cache.Set(ctx, []model.User{{UserKey: "u1", Name: "Ana", Lines: []model.Line{{Name: "Desk"}}}}))
	users, err = cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Desk", users[0].DisplayName())

	mr.FastForward(6 * time.Minute)
	users, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, users)
}

func TestUsersCacheEmptyListIsAHit(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewRedisUsersCache(rdb, "test", time.Minute)

	require.NoError(t, cache.Set(ctx, nil))
	users, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestRedisFailureIsWrapped(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	_, err := NewRedisUsersCache(rdb, "test", time.Minute).Get(context.Background())
	assert.Error(t, err)
}
