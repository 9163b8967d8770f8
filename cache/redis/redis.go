package redis

import (
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	REDIS_MIN_RETRY_BACKOFF = 3 * time.Second
	REDIS_MAX_RETRY_BACKOFF = 5 * time.Second
	REDIS_DATABASE_AUTH     = 0
)

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		MinRetryBackoff: REDIS_MIN_RETRY_BACKOFF,
		MaxRetryBackoff: REDIS_MAX_RETRY_BACKOFF,
	})
}
