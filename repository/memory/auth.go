package memory

import (
	"context"
	"sync"
	"time"
)

// AuthCache is an in-process token denylist with the same contract as the
// redis-backed one.
type AuthCache struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthCache() *AuthCache {
	return &AuthCache{revoked: map[string]time.Time{}}
}

func (a *AuthCache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (a *AuthCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	until, ok := a.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(a.revoked, jti)
		return false, nil
	}
	return true, nil
}
