package limiter

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter hands out one token bucket per key (client ip, author pubkey)
type KeyedLimiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	max     int
}

// NewKeyedLimiter new keyed limiter, max bounds the number of buckets kept
func NewKeyedLimiter(r rate.Limit, b int, max int) *KeyedLimiter {
	return &KeyedLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   r,
		burst:   b,
		max:     max,
	}
}

// Get get limiter for key
func (l *KeyedLimiter) Get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.buckets[key]
	if ok {
		return limiter
	}

	// drop everything rather than track recency
	if l.max > 0 && len(l.buckets) >= l.max {
		l.buckets = make(map[string]*rate.Limiter)
	}

	limiter = rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = limiter

	return limiter
}

// Allow reports whether an event for key may happen now
func (l *KeyedLimiter) Allow(key string) bool {
	return l.Get(key).Allow()
}

// Len number of tracked keys
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}
