package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key, e.g. per live connection.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	limit rate.Limit
	burst int
	now   func() time.Time
}

// New creates a keyed limiter refilling perSec tokens per second up to burst.
func New(burst int, perSec float64) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*rate.Limiter),
		limit: rate.Limit(perSec),
		burst: burst,
		now:   time.Now,
	}
}

// Allow reports whether one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.m[key] = b
	}
	l.mu.Unlock()
	return b.AllowN(l.now(), 1)
}

// Forget drops the bucket of key.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.m, key)
	l.mu.Unlock()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
