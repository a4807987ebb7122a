package ratelimiter

import (
	"sync"
	"time"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type Limiter interface {
	Allow(ip string) (bool, time.Duration)
}

// FixedWindowRateLimiter counts requests per client IP inside a fixed window.
type FixedWindowRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	frame   time.Duration
}

type window struct {
	count    int
	startsAt time.Time
}

func NewFixedWindowLimiter(limit int, frame time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		frame:   frame,
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether the client may proceed; when denied it also returns
// how long until the window resets.
func (rl *FixedWindowRateLimiter) Allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.startsAt) >= rl.frame {
		rl.windows[ip] = &window{count: 1, startsAt: now}
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}

	return false, rl.frame - now.Sub(w.startsAt)
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.frame)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for ip, w := range rl.windows {
			if now.Sub(w.startsAt) >= rl.frame {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}
