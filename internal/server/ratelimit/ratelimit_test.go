package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	l, clock := newTestLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Path: "/api/auth/login", Method: "POST", Limit: 6, Window: time.Minute, Burst: 3},
		},
	})

	for i := 0; i < 3; i++ {
		ok, info := l.Allow("10.0.0.1", "/api/auth/login", "POST")
		assert.True(t, ok, "request %d", i+1)
		assert.Equal(t, 6, info.Limit)
	}

	ok, info := l.Allow("10.0.0.1", "/api/auth/login", "POST")
	assert.False(t, ok)
	assert.InDelta(t, 10*time.Second, info.RetryAfter, float64(time.Millisecond))

	// Other clients have their own bucket.
	ok, _ = l.Allow("10.0.0.2", "/api/auth/login", "POST")
	assert.True(t, ok)

	clock.Advance(10 * time.Second)
	ok, _ = l.Allow("10.0.0.1", "/api/auth/login", "POST")
	assert.True(t, ok, "one token refilled")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})

	assert.True(t, first(l.Allow("c", "/api/applications", "GET")))
	assert.True(t, first(l.Allow("c", "/api/applications", "GET")))
	assert.False(t, first(l.Allow("c", "/api/applications", "GET")))
	assert.True(t, first(l.Allow("c", "/api/applications", "POST")), "methods are limited separately")
}

func TestLimiter_PrefixRulesShareABucket(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Path: "/api/applications/", Method: "POST", Limit: 2, Window: time.Minute},
		},
	})

	assert.True(t, first(l.Allow("c", "/api/applications/a/submit", "POST")))
	assert.True(t, first(l.Allow("c", "/api/applications/b/submit", "POST")))
	assert.False(t, first(l.Allow("c", "/api/applications/c/progress", "POST")))
}

func TestLimiter_Lists(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"trusted": true},
		Blacklist:     map[string]bool{"banned": true},
	})

	for i := 0; i < 5; i++ {
		assert.True(t, first(l.Allow("trusted", "/api/admin/stats", "GET")))
	}
	assert.False(t, first(l.Allow("banned", "/health", "GET")))
}

func TestLimiter_DisabledAndHealth(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false})
	for i := 0; i < 5; i++ {
		assert.True(t, first(l.Allow("c", "/api/auth/login", "POST")))
	}

	l, _ = newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	for i := 0; i < 5; i++ {
		assert.True(t, first(l.Allow("c", "/health", "GET")), "health is unlimited")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	l.Allow("old", "/api/applications", "GET")
	clock.Advance(2 * time.Hour)
	l.Allow("fresh", "/api/applications", "GET")

	l.cleanupBuckets()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	_, ok := l.buckets["fresh:/api/applications:GET"]
	assert.True(t, ok)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/api/applications", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()
	tests := []struct {
		path, method string
		wantPath     string
	}{
		{path: "/api/auth/login", method: "POST", wantPath: "/api/auth/login"},
		{path: "/api/applications", method: "POST", wantPath: "/api/applications"},
		{path: "/api/applications/123/attachments", method: "POST", wantPath: "/api/applications/{id}/attachments"},
		{path: "/api/applications/6f1c/submit", method: "POST", wantPath: "/api/applications/{id}/submit"},
		{path: "/api/applications/6f1c/progress", method: "POST", wantPath: "/api/applications/"},
		{path: "/api/applications//submit", method: "POST", wantPath: "/api/applications/"},
		{path: "/api/applications/6f1c/submit/extra", method: "POST", wantPath: "/api/applications/"},
		{path: "/api/admin/applications/6f1c/review", method: "PUT", wantPath: "/api/admin/"},
		{path: "/api/research/personal/profile-picture", method: "POST", wantPath: "/api/research/personal/profile-picture"},
		{path: "/api/research/educational/1", method: "DELETE", wantPath: "/api/research/"},
		{path: "/api/applications", method: "GET"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantPath == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantPath, got.Path)
			}
		})
	}

	health := MatchEndpoint("/health", "GET", configs)
	if assert.NotNil(t, health) {
		assert.Equal(t, 0, health.Limit)
	}
}

func TestMatchEndpoint_Precedence(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/", Method: "POST", Limit: 1},
		{Path: "/api/applications/", Method: "POST", Limit: 2},
		{Path: "/api/applications/{id}/submit", Method: "POST", Limit: 3},
		{Path: "/api/applications/drafts/submit", Method: "POST", Limit: 4},
	}
	tests := []struct {
		path  string
		limit int
	}{
		{path: "/api/auth/login", limit: 1},
		{path: "/api/applications/1/progress", limit: 2},
		{path: "/api/applications/1/submit", limit: 3},
		{path: "/api/applications/drafts/submit", limit: 4},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, "POST", configs)
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.limit, got.Limit)
			}
		})
	}
	assert.Nil(t, MatchEndpoint("/api/applications/1/submit", "GET", configs))
}

func TestLimiter_SubmitBucketIsSharedAcrossApplications(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, EndpointConfigs: DefaultEndpointConfigs()})

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("10.0.0.1", fmt.Sprintf("/api/applications/app-%d/submit", i), "POST")
		assert.True(t, ok, "submit %d", i)
	}
	ok, info := l.Allow("10.0.0.1", "/api/applications/app-9/submit", "POST")
	assert.False(t, ok)
	assert.Equal(t, 10, info.Limit)

	ok, _ = l.Allow("10.0.0.1", "/api/applications/app-9/progress", "POST")
	assert.True(t, ok, "progress uses its own bucket")
}

func first(ok bool, _ Info) bool { return ok }
