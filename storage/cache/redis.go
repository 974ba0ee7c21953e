package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pratik071103/case-link-share/core"
)

// Redis is the Cache backed by a redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Cache = (*Redis)(nil)

// NewRedis connects to the redis server of conf. Keys are namespaced with prefix.
func NewRedis(conf core.RedisConfig, prefix string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	return &Redis{client: rdb, prefix: prefix}
}

// New returns a Redis cache when conf has an address, a Memory cache otherwise.
func New(conf core.RedisConfig, prefix string) Cache {
	if conf.Addr == "" {
		return NewMemory()
	}
	return NewRedis(conf, prefix)
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "redis get %s", key)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %s", key)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if ttl < 0 {
		ttl = 0
	}
	return errors.Wrapf(r.client.Set(ctx, r.key(key), data, ttl).Err(), "redis set %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, r.key(key)).Err(), "redis del %s", key)
}

func (r *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}

func (r *Redis) Close() error { return r.client.Close() }
