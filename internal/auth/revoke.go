package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged-out tokens until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// NopRevoker is used when no Redis is configured; logout is then
// client-side only.
type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevoker) Revoked(context.Context, string) (bool, error) { return false, nil }

// RedisRevoker stores revoked token ids as expiring Redis keys.
type RedisRevoker struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisRevoker constructs a RedisRevoker on rdb.
func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, now: time.Now}
}

func revokedKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

// Revoke marks tokenID revoked until the given time. Tokens already past
// their expiry need no entry.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Revoked reports whether tokenID has been revoked.
func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

// NewRedis connects to the Redis server at url and verifies it responds.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
