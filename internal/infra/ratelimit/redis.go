package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared fixed-window backend: INCR per key, with the window TTL
// attached on the first hit. Any instance that handles a retry sees the same
// counter, which is what a horizontally scaled deployment needs.
type Redis struct {
	rdb    *redis.Client
	cfg    Config
	prefix string
}

type RedisOption func(*Redis)

func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

func NewRedis(rdb *redis.Client, cfg Config, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		cfg:    cfg.withDefaults(),
		prefix: "giftaccept",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Check(ctx context.Context, key string) (Decision, error) {
	k := r.key(key)

	pipe := r.rdb.Pipeline()
	incr := pipe.Incr(ctx, k)
	// NX so a retry mid-window does not push the expiry out.
	pipe.ExpireNX(ctx, k, r.cfg.Window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("redis check: %w", err)
	}

	count := int(incr.Val())
	if count > r.cfg.MaxAttempts {
		return Decision{Allowed: false, Remaining: 0}, nil
	}

	return Decision{Allowed: true, Remaining: r.cfg.MaxAttempts - count}, nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	err := r.rdb.Del(ctx, r.key(key)).Err()
	if err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}

	return nil
}
