package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestBucket_TakeAndRefill(t *testing.T) {
	start := time.Now()
	b := newBucket(10, 1.0, start)

	for i := 0; i < 10; i++ {
		allowed, remaining, _, _ := b.take(start)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, _, reset, retry := b.take(start)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, retry)
	assert.Equal(t, start.Add(10*time.Second), reset)

	allowed, _, _, _ = b.take(start.Add(1100 * time.Millisecond))
	assert.True(t, allowed, "one token refilled")
	allowed, _, _, _ = b.take(start.Add(1100 * time.Millisecond))
	assert.False(t, allowed)
}

func TestBucket_RefillCapsAtCapacity(t *testing.T) {
	start := time.Now()
	b := newBucket(3, 1.0, start)
	b.take(start)

	_, remaining, reset, _ := b.take(start.Add(time.Hour))
	assert.Equal(t, 2, remaining)
	assert.Equal(t, start.Add(time.Hour+time.Second), reset)
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
}

func TestLimiter_RefillOverTime(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})

	for i := 0; i < 60; i++ {
		l.Allow("c", "/x", "GET")
	}
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	allowed, _ := l.Allow("10.0.0.1", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.1", "/x", "GET")
	assert.False(t, allowed)
	allowed, _ = l.Allow("10.0.0.2", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	white, _ := newTestLimiter(t, &Config{
		Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute,
		Whitelist: map[string]bool{"127.0.0.1": true},
	})
	for i := 0; i < 50; i++ {
		allowed, info := white.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	black, _ := newTestLimiter(t, &Config{
		Enabled: true, DefaultLimit: 1000, DefaultWindow: time.Minute,
		Blacklist: map[string]bool{"192.168.1.1": true},
	})
	allowed, _ := black.Allow("192.168.1.1", "/test", "GET")
	assert.False(t, allowed)

	off, _ := newTestLimiter(t, &Config{Enabled: false})
	for i := 0; i < 50; i++ {
		allowed, _ := off.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, off.Len())
}

func TestLimiter_AnalyzeTier(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(20),
	})

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("c", "/analyze", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 20, info.Limit)
	}
	allowed, info := l.Allow("c", "/analyze", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 3*time.Minute, info.RetryAfter)

	// the streaming endpoint has its own bucket
	allowed, _ = l.Allow("c", "/analyze/stream", "POST")
	assert.True(t, allowed)

	allowed, info = l.Allow("c", "/reports/abc", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 300, info.Limit)
}

func TestLimiter_PrefixEndpointsShareBucket(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled: true, DefaultLimit: 1000, DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{{Path: "/reports/", Method: "GET", Limit: 2, Window: time.Minute}},
	})

	for _, id := range []string{"a", "b"} {
		allowed, _ := l.Allow("c", "/reports/"+id, "GET")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("c", "/reports/c", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})

	var wg sync.WaitGroup
	var allowedCount atomic.Int64
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("127.0.0.1", "/test", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowedCount.Load())
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(2 * time.Hour)
	for i := 0; i < 5; i++ {
		l.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}

	l.sweep(clock.Now().Add(-time.Hour))
	assert.Equal(t, 5, l.Len())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	l.Stop()
	l.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	allowed, info := l.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/reports", Method: "POST", Limit: 1},
		{Path: "/reports/", Method: "GET", Limit: 2},
	}

	tests := []struct {
		path, method string
		want         int
		found        bool
	}{
		{"/reports", "POST", 1, true},
		{"/reports/abc", "GET", 2, true},
		{"/reports", "GET", 0, false},
		{"/reports/abc", "DELETE", 0, false},
		{"/health", "GET", 0, true},
		{"/other", "GET", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			ep := MatchEndpoint(tt.path, tt.method, configs)
			if !tt.found {
				assert.Nil(t, ep)
				return
			}
			require.NotNil(t, ep)
			assert.Equal(t, tt.want, ep.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"SKILLBRIDGE_RATE_LIMIT_DEFAULT_LIMIT":    "50",
		"SKILLBRIDGE_RATE_LIMIT_DEFAULT_WINDOW":   "30s",
		"SKILLBRIDGE_RATE_LIMIT_WHITELIST":        "10.0.0.1, 10.0.0.2,",
		"SKILLBRIDGE_RATE_LIMIT_ANALYZE_PER_HOUR": "not-a-number",
	}
	cfg := LoadConfig(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	require.NotEmpty(t, cfg.EndpointConfigs)
	assert.Equal(t, "/analyze", cfg.EndpointConfigs[0].Path)
	assert.Equal(t, 20, cfg.EndpointConfigs[0].Limit)

	disabled := LoadConfig(func(k string) string {
		if k == "SKILLBRIDGE_RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, disabled.Enabled)
}
