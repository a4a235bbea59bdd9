package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"sigtrader/internal/application/port"
)

// Repo is the redis-backed key-value store.
type Repo struct {
	rdb    *redis.Client
	prefix string
}

var _ port.Store = (*Repo)(nil)

// New creates a redis store with the given key prefix.
func New(addr, password string, db int, prefix string) *Repo {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Repo{rdb: rdb, prefix: prefix}
}

func (r *Repo) key(key string) string { return r.prefix + ":" + key }

func (r *Repo) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Repo) Save(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }
