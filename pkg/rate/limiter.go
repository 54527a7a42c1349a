// Package rate provides keyed token-bucket limiters backed by x/time/rate.
package rate

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter admits or rejects operations, tracking a separate budget per key.
type Limiter interface {
	Allow(key string) bool
}

// Unlimited admits every operation.
var Unlimited Limiter = unlimited{}

type unlimited struct{}

func (unlimited) Allow(string) bool { return true }

type keyedLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewKeyedLimiter admits up to perSecond operations per second for each key.
// Rates below one per second still admit a single operation up front. A
// non-positive rate disables limiting.
func NewKeyedLimiter(perSecond float64) Limiter {
	if perSecond <= 0 {
		return Unlimited
	}

	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &keyedLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}
