// Package httpapi wires the HTTP transport (Gin) to the studio workflow,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging, panic recovery, metrics, compression,
// rate limiting, CORS, and security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup with all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/averios/go-style-studio/internal/config"
	"github.com/averios/go-style-studio/internal/domain"
	"github.com/averios/go-style-studio/internal/http/handlers"
	"github.com/averios/go-style-studio/internal/http/middleware"
	"github.com/averios/go-style-studio/internal/studio"
)

// maxBodyBytes caps request bodies. Generous enough for the multipart image
// upload endpoint; everything else is small JSON.
const maxBodyBytes = 12 << 20

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate the correlation id
//  3. SessionIdentity: resolve the bearer token to a user id
//  4. Logger: structured access logs (carries user id when resolved)
//  5. Recovery: panics to JSON 500
//  6. Body size limiter
//  7. Metrics and gzip
//  8. Rate limiter (per user, falling back to IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, svc *studio.Studio, images handlers.ImageUploader, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Resolve the session identity before logging and rate limiting so
	// both key on the user when one is authenticated.
	r.Use(middleware.SessionIdentity(middleware.SessionSourceFunc(
		func(c *gin.Context) (domain.SessionState, bool) {
			return svc.Session(c.Request.Context())
		})))

	// 4) Structured access logging
	r.Use(middleware.Logger())

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 7) Prometheus metrics, /metrics endpoint, response compression
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all when none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and the request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	sessionH := handlers.NewSessionHandler(svc)
	studioH := handlers.NewStudioHandler(svc, images)
	historyH := handlers.NewHistoryHandler(svc)
	bookmarkH := handlers.NewBookmarkHandler(svc)
	catalogH := handlers.NewCatalogHandler(svc.Catalog())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Session lifecycle; login is the only unauthenticated mutation.
		api.POST("/session/login", sessionH.Login)
		api.GET("/session", sessionH.Current)
		api.POST("/session/validate", sessionH.Validate)
		api.POST("/session/logout", sessionH.Logout)

		// Catalog browsing is public.
		api.GET("/catalog", catalogH.List)
		api.GET("/catalog/:id", catalogH.Get)

		// Everything else requires a live session. The services re-check
		// expiry themselves; the guard keeps unauthenticated traffic out.
		auth := api.Group("", middleware.RequireSession())
		{
			auth.POST("/studio/analyses", studioH.Start)
			auth.POST("/studio/analyses/upload", studioH.Upload)
			auth.DELETE("/studio/analyses/current", studioH.Cancel)
			auth.GET("/studio/state", studioH.State)
			auth.POST("/studio/navigation/back", studioH.Back)
			auth.POST("/studio/navigation/forward", studioH.Forward)
			auth.POST("/studio/idle", studioH.Idle)

			auth.GET("/history", historyH.List)
			auth.POST("/history/:id/activate", historyH.Activate)

			auth.GET("/bookmarks", bookmarkH.List)
			auth.POST("/bookmarks/:productId/toggle", bookmarkH.Toggle)
			auth.DELETE("/bookmarks", bookmarkH.Clear)
		}
	}
}

// limitBody caps the request body for all endpoints via http.MaxBytesReader.
// Requests exceeding the cap make downstream body reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
