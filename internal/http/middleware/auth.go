// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the session guard. Identity resolution is split from
// enforcement: SessionIdentity resolves the bearer token into a user ID for
// logging and rate-limit keying without rejecting anything, while
// RequireSession aborts unauthenticated requests before they reach a
// protected handler. Expiry itself is decided by the session layer; the
// guard only consults its projection.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/domain"
)

const (
	// userIDKey is the Gin context key under which the resolved user ID is stored.
	userIDKey = "userID"
	// sessionTokenKey is the Gin context key under which the bearer token is stored.
	sessionTokenKey = "sessionToken"
)

// SessionSource exposes the current session projection. Implementations
// apply local expiry before answering.
type SessionSource interface {
	Session(c *gin.Context) (domain.SessionState, bool)
}

// SessionSourceFunc adapts a function to the SessionSource interface.
type SessionSourceFunc func(c *gin.Context) (domain.SessionState, bool)

// Session calls f.
func (f SessionSourceFunc) Session(c *gin.Context) (domain.SessionState, bool) { return f(c) }

// SessionIdentity resolves the Authorization bearer token against the
// session source and, when it matches the live session, stores the user ID
// and token in the Gin context. It never rejects; enforcement belongs to
// RequireSession or the handler layer.
func SessionIdentity(src SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if st, ok := src.Session(c); ok && st.Token == token {
				c.Set(userIDKey, st.UserID)
				c.Set(sessionTokenKey, token)
			}
		}
		c.Next()
	}
}

// RequireSession aborts with 401 when SessionIdentity did not resolve a live
// session for the request. The body uses the standard error envelope.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get(userIDKey); ok {
			if s, ok := v.(string); ok && s != "" {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "no_session",
			"message":    "authentication required",
		})
	}
}

// UserID returns the user ID resolved by SessionIdentity, empty when the
// request is unauthenticated.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
