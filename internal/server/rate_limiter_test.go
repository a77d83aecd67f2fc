package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterRefill(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(RateLimitConfig{Burst: 2, RefillInterval: 2 * time.Second})
	rl.now = func() time.Time { return now }
	rl.lastCheck = now

	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow(), "burst exhausted")

	now = now.Add(time.Second)
	assert.True(t, rl.allow(), "one token refilled after half the interval")
	assert.False(t, rl.allow())

	now = now.Add(time.Hour)
	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow(), "refill is capped at the burst size")
}

func TestRateLimiterInvalidConfig(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{})
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}
