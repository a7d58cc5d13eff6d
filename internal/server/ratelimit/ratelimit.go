// Package ratelimit provides per-client token bucket rate limiting for the HTTP API.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket: up to capacity tokens, refilled continuously at rate
// tokens per second.
type bucket struct {
	capacity float64
	rate     float64
	tokens   float64
	last     time.Time
	seen     time.Time
}

func newBucket(capacity int, rate float64, now time.Time) *bucket {
	return &bucket{
		capacity: float64(capacity),
		rate:     rate,
		tokens:   float64(capacity),
		last:     now,
		seen:     now,
	}
}

func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.last = now
}

// take consumes one token if available. It reports the bucket state afterwards:
// whole tokens left, when the bucket is full again and, on denial, how long until
// the next token.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, reset time.Time, retry time.Duration) {
	b.refill(now)
	b.seen = now

	allowed = b.tokens >= 1
	if allowed {
		b.tokens--
	} else {
		retry = b.until(1 - b.tokens)
	}

	reset = now
	if b.tokens < b.capacity {
		reset = now.Add(b.until(b.capacity - b.tokens))
	}
	return allowed, int(b.tokens), reset, retry
}

func (b *bucket) until(tokens float64) time.Duration {
	if b.rate <= 0 || tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / b.rate * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept before cleanup drops it.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter manages token buckets keyed by client, path and method.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter. A nil config allows 1000 requests per minute per
// client and endpoint.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}

	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks whether a request from clientID to path/method may proceed and
// consumes a token when it may.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	ep := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if ep == nil {
		ep = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if ep.Limit <= 0 || ep.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	key := clientID + ":" + ep.key(path) + ":" + method

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		capacity := ep.Burst
		if capacity <= 0 {
			capacity = ep.Limit
		}
		b = newBucket(capacity, float64(ep.Limit)/ep.Window.Seconds(), now)
		l.buckets[key] = b
	}
	allowed, remaining, reset, retry := b.take(now)
	l.mu.Unlock()

	return allowed, Info{
		Allowed:    allowed,
		Limit:      ep.Limit,
		Remaining:  remaining,
		ResetTime:  reset,
		RetryAfter: retry,
	}
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep(l.now().Add(-l.config.IdleTTL))
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets not used since cutoff.
func (l *Limiter) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
