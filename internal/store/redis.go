package store

import (
	"context"
	"encoding/json"
	"errors"
	"hungrypanda/hub-api/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLinkPrefix = "magic_link:"

type redisLinks struct {
	rdb *redis.Client
}

// NewRedisLinks returns a magic link store backed by Redis. Keys carry the
// link lifetime as their TTL so Redis evicts them on its own.
func NewRedisLinks(rdb *redis.Client) MagicLinks {
	return &redisLinks{rdb: rdb}
}

func (r *redisLinks) Put(ctx context.Context, l *model.MagicLink) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}

	ttl := l.ExpiresAt.Sub(l.CreatedAt)
	if ttl < 0 {
		ttl = 0
	}

	return r.rdb.Set(ctx, redisLinkPrefix+l.Token, data, ttl).Err()
}

func (r *redisLinks) Get(ctx context.Context, token string) (*model.MagicLink, error) {
	data, err := r.rdb.Get(ctx, redisLinkPrefix+token).Bytes()
	return decodeLink(data, err)
}

func (r *redisLinks) Consume(ctx context.Context, token string) (*model.MagicLink, error) {
	data, err := r.rdb.GetDel(ctx, redisLinkPrefix+token).Bytes()
	return decodeLink(data, err)
}

// DeleteExpired is a no-op, expired keys are dropped by Redis
func (r *redisLinks) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeLink(data []byte, err error) (*model.MagicLink, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var l model.MagicLink
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}

	return &l, nil
}
