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

// RedisTokenStore shares the provider access token between dashboard
// replicas so only one of them pays for a refresh.
type RedisTokenStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisTokenStore(rdb redis.Cmdable, prefix string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RedisTokenStore) tokenKey() string {
	return fmt.Sprintf("%s:oauth:token", r.prefix)
}

func (r *RedisTokenStore) Load(ctx context.Context) (*model.Token, error) {
	key := r.tokenKey()
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load token from redis")
		return nil, errx.WrapRedis(err)
	}

	var tok model.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("dropping undecodable cached token")
		return nil, nil
	}
	return &tok, nil
}

func (r *RedisTokenStore) Save(ctx context.Context, token model.Token) error {
	ttl := token.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	key := r.tokenKey()
	if err := r.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store token in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTokenStore) Delete(ctx context.Context) error {
	key := r.tokenKey()
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete token from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.TokenStore = (*RedisTokenStore)(nil)
