package storage

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
)

const (
	loginFailureTTL  = 15 * time.Minute
	maxTrackedLogins = 10000
)

// LoginLimiter throttles password guessing by counting failed logins per
// username in a TTL cache. The count is approximate under concurrent
// failures, which is fine for abuse throttling.
type LoginLimiter struct {
	cache       *ristretto.Cache[string, uint32]
	maxFailures uint32
}

func NewLoginLimiter(maxFailures uint32) *LoginLimiter {
	c, err := ristretto.NewCache(&ristretto.Config[string, uint32]{
		NumCounters: maxTrackedLogins,
		MaxCost:     maxTrackedLogins,
		BufferItems: 64,
	})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create login limiter cache")
	}

	return &LoginLimiter{
		cache:       c,
		maxFailures: maxFailures,
	}
}

// Blocked reports whether username has exhausted its failure budget.
func (l *LoginLimiter) Blocked(username string) bool {
	n, ok := l.cache.Get(username)
	return ok && n >= l.maxFailures
}

// Failure records one failed login attempt.
func (l *LoginLimiter) Failure(username string) {
	n, _ := l.cache.Get(username)
	l.cache.SetWithTTL(username, n+1, 1, loginFailureTTL)
	l.cache.Wait()
}

// Reset clears the failure count after a successful login.
func (l *LoginLimiter) Reset(username string) {
	l.cache.Del(username)
	l.cache.Wait()
}
