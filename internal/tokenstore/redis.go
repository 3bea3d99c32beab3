package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis — Backend поверх Redis: значения лежат строками под prefix+key.
// Delete удаляет все ключи одной командой DEL.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "portfolio:session:".
func NewRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	if prefix == "" {
		prefix = "portfolio:session:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	return v, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	return r.rdb.Del(ctx, full...).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
