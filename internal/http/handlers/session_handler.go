// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file implements the session endpoints: establishing a session from a
// completed external authentication, reading the current projection,
// triggering the advisory remote validation, and logout.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/domain"
)

// SessionService is the slice of the studio surface the session endpoints
// need. The concrete implementation is *studio.Studio.
type SessionService interface {
	Login(ctx context.Context, token, userID, displayName, avatarRef string) domain.SessionState
	Logout(ctx context.Context)
	Session(ctx context.Context) (domain.SessionState, bool)
	ValidateSession(ctx context.Context) error
}

// SessionHandler serves /session endpoints.
type SessionHandler struct {
	svc SessionService
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// loginRequest is the payload for POST /session/login. The token comes from
// the external identity provider; this service never sees credentials.
type loginRequest struct {
	Token       string `json:"token" binding:"required"`
	UserID      string `json:"user_id" binding:"required"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

// sessionResponse is the wire projection of a session. The token is never
// echoed back.
type sessionResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toSessionResponse(st domain.SessionState) sessionResponse {
	return sessionResponse{
		UserID:      st.UserID,
		DisplayName: st.DisplayName,
		AvatarRef:   st.AvatarRef,
		IssuedAt:    st.IssuedAt,
		ExpiresAt:   st.ExpiresAt,
	}
}

// Login establishes the session.
//
// POST /api/v1/session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid login payload")
		return
	}
	if strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.UserID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token and user_id are required")
		return
	}

	st := h.svc.Login(c.Request.Context(), req.Token, req.UserID, req.DisplayName, req.AvatarRef)
	ok(c, http.StatusCreated, toSessionResponse(st))
}

// Logout destroys the session and its dependent state.
//
// POST /api/v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	h.svc.Logout(c.Request.Context())
	noContent(c)
}

// Current returns the live session projection, or 401 when none exists.
// Local expiry is applied before answering.
//
// GET /api/v1/session
func (h *SessionHandler) Current(c *gin.Context) {
	st, okSess := h.svc.Session(c.Request.Context())
	if !okSess {
		fail(c, http.StatusUnauthorized, ErrCodeNoSession, "no active session")
		return
	}
	ok(c, http.StatusOK, toSessionResponse(st))
}

// Validate triggers the advisory remote validation. Connectivity failures
// are swallowed by the service and answered 204; only a definitive rejection
// surfaces as 401.
//
// POST /api/v1/session/validate
func (h *SessionHandler) Validate(c *gin.Context) {
	if err := h.svc.ValidateSession(c.Request.Context()); err != nil {
		failDomain(c, err)
		return
	}
	noContent(c)
}
