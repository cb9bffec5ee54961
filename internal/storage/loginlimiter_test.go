package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginLimiterBlocksAfterMaxFailures(t *testing.T) {
	limiter := NewLoginLimiter(3)

	assert.False(t, limiter.Blocked("alice"))

	limiter.Failure("alice")
	limiter.Failure("alice")
	assert.False(t, limiter.Blocked("alice"))

	limiter.Failure("alice")
	assert.True(t, limiter.Blocked("alice"))

	// Other usernames are unaffected.
	assert.False(t, limiter.Blocked("bob"))
}

func TestLoginLimiterReset(t *testing.T) {
	limiter := NewLoginLimiter(1)

	limiter.Failure("alice")
	assert.True(t, limiter.Blocked("alice"))

	limiter.Reset("alice")
	assert.False(t, limiter.Blocked("alice"))
}
