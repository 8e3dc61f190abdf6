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
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisSessionRepository struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *RedisSessionRepository) Create(ctx context.Context, username string) (*model.Session, error) {
	s := &model.Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(s.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store session")
		return nil, errx.WrapRedis(err)
	}
	return s, nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	key := r.sessionKey(id)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session")
		return nil, errx.WrapRedis(err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("dropping undecodable session")
		return nil, nil
	}
	// sliding expiry
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("failed to extend session")
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("session expired while extending")
		}
	}
	return &s, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
