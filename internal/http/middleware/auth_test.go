package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/domain"
)

func sessionWithToken(token string) SessionSource {
	return SessionSourceFunc(func(*gin.Context) (domain.SessionState, bool) {
		if token == "" {
			return domain.SessionState{}, false
		}
		return domain.SessionState{
			Token:     token,
			UserID:    "u-1",
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}, true
	})
}

func guardRouter(src SessionSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), SessionIdentity(src))
	r.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	protected := r.Group("/", RequireSession())
	protected.GET("/locked", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSessionIdentity_ResolvesMatchingToken(t *testing.T) {
	r := guardRouter(sessionWithToken("tok-1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	r.ServeHTTP(w, req)

	if w.Body.String() != "u-1" {
		t.Fatalf("expected resolved user id, got %q", w.Body.String())
	}
}

func TestSessionIdentity_IgnoresMismatchedToken(t *testing.T) {
	r := guardRouter(sessionWithToken("tok-1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer someone-elses-token")
	r.ServeHTTP(w, req)

	if w.Body.String() != "" {
		t.Fatalf("mismatched token must not resolve an identity, got %q", w.Body.String())
	}
}

func TestRequireSession_RejectsUnauthenticated(t *testing.T) {
	r := guardRouter(sessionWithToken(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locked", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"no_session"`) {
		t.Fatalf("expected no_session envelope, got %s", w.Body.String())
	}
}

func TestRequireSession_PassesAuthenticated(t *testing.T) {
	r := guardRouter(sessionWithToken("tok-9"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/locked", nil)
	req.Header.Set("Authorization", "Bearer tok-9")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := bearerToken(c); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
	c.Request.Header.Set("Authorization", "Basic abc")
	if got := bearerToken(c); got != "" {
		t.Fatalf("non-bearer schemes must be ignored, got %q", got)
	}
	c.Request.Header.Set("Authorization", "Bearer  tok-42 ")
	if got := bearerToken(c); got != "tok-42" {
		t.Fatalf("expected trimmed token, got %q", got)
	}
}
