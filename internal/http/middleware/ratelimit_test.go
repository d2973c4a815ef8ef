package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowsThenRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// rps 0 with burst 1: exactly one request per bucket is admitted.
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	r.Use(RequestID(), rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header, got %q", second.Header().Get("Retry-After"))
	}
	if !strings.Contains(second.Body.String(), `"code":"rate_limited"`) {
		t.Fatalf("expected rate_limited envelope, got %s", second.Body.String())
	}
}

func TestRateLimiter_SeparateBucketsPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	r.Use(func(c *gin.Context) {
		c.Set(userIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Test-User", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if hit("alice") != http.StatusOK {
		t.Fatal("alice's first request should pass")
	}
	if hit("alice") != http.StatusTooManyRequests {
		t.Fatal("alice's second request should be limited")
	}
	// Different identity, different bucket.
	if hit("bob") != http.StatusOK {
		t.Fatal("bob's first request should pass")
	}
}

func TestKeyByUserOrIP_FallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:1234"

	key := KeyByUserOrIP()(c)
	if !strings.HasPrefix(key, "ip:") {
		t.Fatalf("expected ip-keyed bucket, got %q", key)
	}

	c.Set(userIDKey, "u-1")
	if got := KeyByUserOrIP()(c); got != "user:u-1" {
		t.Fatalf("expected user-keyed bucket, got %q", got)
	}
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByUserOrIP())
	rl.ttl = 0 // everything is immediately idle

	rl.getVisitor("user:stale")
	rl.cleanupN = 4999 // next lookup triggers the sweep
	rl.getVisitor("user:fresh")

	rl.mu.Lock()
	_, staleAlive := rl.visitors["user:stale"]
	_, freshAlive := rl.visitors["user:fresh"]
	rl.mu.Unlock()

	if staleAlive {
		t.Fatal("idle visitor should have been evicted")
	}
	if !freshAlive {
		t.Fatal("freshly created visitor must survive the sweep")
	}
}
