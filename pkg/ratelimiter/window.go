package ratelimiter

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// WindowLimiter is an in-memory fixed-window limiter. Each key gets a
// counter that expires when its window ends; within the window at most
// limit requests are allowed.
type WindowLimiter struct {
	mu     sync.Mutex
	store  *cache.Cache
	limit  int
	window time.Duration
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		store:  cache.New(window, 2*window),
		limit:  limit,
		window: window,
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	if v, found := l.store.Get(key); found {
		count = v.(int)
	}
	if count >= l.limit {
		return false, nil
	}

	if count == 0 {
		// First hit starts the window; the entry expiry fixes the window end.
		l.store.Set(key, 1, l.window)
		return true, nil
	}

	// Preserve the original expiry: fixed window, not sliding.
	if _, err := l.store.IncrementInt(key, 1); err != nil {
		l.store.Set(key, 1, l.window)
	}
	return true, nil
}
