package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisUsersCache keeps the account's user list for a short while; every
// page load needs it for the nurse selector.
type RedisUsersCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisUsersCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisUsersCache {
	return &RedisUsersCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisUsersCache) usersKey() string {
	return fmt.Sprintf("%s:users", r.prefix)
}

func (r *RedisUsersCache) Get(ctx context.Context) ([]model.User, error) {
	key := r.usersKey()
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load users from redis")
		return nil, errx.WrapRedis(err)
	}

	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("dropping undecodable users cache")
		return nil, nil
	}
	return users, nil
}

func (r *RedisUsersCache) Set(ctx context.Context, users []model.User) error {
	if r.ttl <= 0 {
		return nil
	}
	if users == nil {
		users = []model.User{}
	}
	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	key := r.usersKey()
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store users in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.UsersCache = (*RedisUsersCache)(nil)
