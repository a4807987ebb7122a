package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_AllowsUpToLimit(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestFixedWindow_TracksClientsIndependently(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(1, time.Minute)

	allowed, _ := rl.Allow("10.0.0.1")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.1")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("10.0.0.2")
	assert.True(t, allowed, "a different client has its own window")
}

func TestFixedWindow_ResetsAfterFrame(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(1, 20*time.Millisecond)

	allowed, _ := rl.Allow("10.0.0.1")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.1")
	assert.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = rl.Allow("10.0.0.1")
	assert.True(t, allowed, "window should reset after the time frame")
}
