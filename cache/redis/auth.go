package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "revoked:"

// AuthRedisCache is the token denylist. A revoked token id stays in redis
// only as long as the token itself could still be valid.
type AuthRedisCache struct {
	rdb *redis.Client
}

func (a *AuthRedisCache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired; nothing to deny.
		return nil
	}
	return a.rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

func (a *AuthRedisCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := a.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func NewAuthRedisCache(rdb *redis.Client) *AuthRedisCache {
	return &AuthRedisCache{
		rdb: rdb,
	}
}
