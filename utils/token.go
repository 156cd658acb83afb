package utils

import (
	"errors"
	"sync"
	"time"
)

var ErrTokenRevoked = errors.New("token has been revoked")

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

// BlacklistToken revokes a token until its natural expiry.
func BlacklistToken(token string) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = time.Now().Add(tokenLifetime)
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()

	if !exists {
		return false
	}
	if time.Now().Before(expiry) {
		return true
	}

	blacklistMutex.Lock()
	delete(blacklistedTokens, token)
	blacklistMutex.Unlock()
	return false
}

// PruneBlacklist drops expired entries and returns how many remain.
func PruneBlacklist(now time.Time) int {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	for token, expiry := range blacklistedTokens {
		if now.After(expiry) {
			delete(blacklistedTokens, token)
		}
	}
	return len(blacklistedTokens)
}

// ValidateToken parses the token and rejects revoked ones.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	if IsTokenBlacklisted(tokenString) {
		return nil, ErrTokenRevoked
	}
	return ParseToken(tokenString)
}
