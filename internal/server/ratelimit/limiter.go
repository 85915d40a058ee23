// Package ratelimit throttles API clients with per-key token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a full bucket may go unused before it is dropped.
const idleAfter = 10 * time.Minute

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int // requests per minute
	Remaining  int
	ResetAt    time.Time     // when the bucket is full again
	RetryAfter time.Duration // 0 when allowed
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	perMinute int
	burst     int
	limit     rate.Limit

	mu      sync.Mutex
	buckets map[string]*bucket

	stop chan struct{}
	once sync.Once
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter allows perMinute requests per key with bursts up to burst. A
// burst below 1 defaults to perMinute.
func NewLimiter(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = perMinute
	}
	l := &Limiter{
		perMinute: perMinute,
		burst:     burst,
		limit:     rate.Limit(float64(perMinute) / 60),
		buckets:   map[string]*bucket{},
		stop:      make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow takes one token from key's bucket when available.
func (l *Limiter) Allow(key string) Result {
	now := time.Now()
	l.mu.Lock()
	b := l.buckets[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	allowed := b.lim.AllowN(now, 1)
	tokens := b.lim.TokensAt(now)
	res := Result{
		Allowed:   allowed,
		Limit:     l.perMinute,
		Remaining: max(int(tokens), 0),
		ResetAt:   now.Add(time.Duration((float64(l.burst) - tokens) / float64(l.limit) * float64(time.Second))),
	}
	if !allowed {
		wait := time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))
		res.RetryAfter = max(wait, time.Second)
	}
	return res
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	t := time.NewTicker(idleAfter)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-t.C:
			l.drop(now)
		}
	}
}

// drop forgets idle buckets that refilled completely.
func (l *Limiter) drop(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleAfter && b.lim.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}
