// Package ratelimit throttles repeated attempts per key with a fixed window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another attempt for a key is allowed.
type Limiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	// Reset clears the attempts recorded for key.
	Reset(ctx context.Context, key string) error
}

// MemoryLimiter is an in-process fixed-window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	maxReqs int
	period  time.Duration
	now     func() time.Time
	cleanup *time.Ticker
	done    chan struct{}
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter creates a limiter that allows maxRequests per period and
// key. Call Stop to release the cleanup goroutine.
func NewMemoryLimiter(maxRequests int, period time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		maxReqs: maxRequests,
		period:  period,
		now:     time.Now,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go l.cleanupExpired()
	return l
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}

	if w.count >= l.maxReqs {
		return false, nil
	}
	w.count++
	return true, nil
}

// Reset implements Limiter.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLimiter) cleanupExpired() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.Sub(w.start) >= l.period {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *MemoryLimiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
