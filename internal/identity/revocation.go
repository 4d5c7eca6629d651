package identity

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RevocationCache remembers revoked session ids until their tokens would have
// expired, so revoked tokens are refused without a session lookup.
type RevocationCache struct {
	cache *cache.Cache
}

func NewRevocationCache(cleanupInterval time.Duration) *RevocationCache {
	return &RevocationCache{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Revoke records jti until expiresAt. Already expired tokens are skipped.
func (r *RevocationCache) Revoke(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.Set(jti, struct{}{}, ttl)
}

func (r *RevocationCache) IsRevoked(jti string) bool {
	_, found := r.cache.Get(jti)
	return found
}
