package utils

import (
	"context"
	"sync"
	"time"
)

// blacklistEntry keeps expiration metadata for a revoked JWT.
type blacklistEntry struct {
	expiresAt time.Time
}

var (
	blacklist     = map[string]blacklistEntry{}
	blacklistMu   sync.RWMutex
	lastEvictedAt time.Time
)

// evictInterval bounds the in-memory fallback: entries whose tokens have
// expired anyway are purged in bulk at most this often.
const evictInterval = 5 * time.Minute

// BlacklistToken records a revoked token until its natural expiration so
// logout invalidates it even though the signature still verifies.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	// Prefer Redis: the key expires with the token, nothing to clean up.
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rc.Set(ctx, "jwt:blacklist:"+token, "1", ttl).Err() == nil {
			return
		}
	}
	blacklistMu.Lock()
	evictExpiredLocked()
	blacklist[token] = blacklistEntry{expiresAt: expiresAt}
	blacklistMu.Unlock()
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, "jwt:blacklist:"+token).Result(); err == nil {
			return n > 0
		}
		// Redis unreachable: fall through to the in-memory set rather than
		// locking every caller out.
	}

	blacklistMu.RLock()
	entry, ok := blacklist[token]
	blacklistMu.RUnlock()
	if !ok {
		return false
	}

	if time.Now().After(entry.expiresAt) {
		blacklistMu.Lock()
		delete(blacklist, token)
		blacklistMu.Unlock()
		return false
	}

	return true
}

func evictExpiredLocked() {
	now := time.Now()
	if now.Sub(lastEvictedAt) < evictInterval {
		return
	}
	lastEvictedAt = now
	for token, entry := range blacklist {
		if now.After(entry.expiresAt) {
			delete(blacklist, token)
		}
	}
}
