package domain

import (
	"context"
	"time"
)

// AuthCache tracks revoked token IDs so logout is authoritative before the
// token's natural expiry.
type AuthCache interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
