// Package handlers defines the HTTP-layer error codes used across the API.
//
// Codes are lowercase snake_case and stable; clients branch on them for
// programmatic handling while the message stays human-readable. Generic
// codes mirror common HTTP status semantics; domain-specific ones cover
// workflow outcomes a status alone cannot convey.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/bookmarks"
	"github.com/averios/go-style-studio/internal/http/middleware"
	"github.com/averios/go-style-studio/internal/session"
	"github.com/averios/go-style-studio/internal/studio"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeNoSession        = "no_session"
	ErrCodeSessionExpired   = "session_expired"
	ErrCodeTogglePending    = "toggle_pending"
	ErrCodeBulkRemoveFailed = "bulk_remove_failed"
	ErrCodeSyncFailed       = "sync_failed"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failDomain maps a service-layer error to the matching envelope. Unknown
// errors become opaque 500s; their detail stays in the server log only.
func failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, studio.ErrNoSession):
		fail(c, http.StatusUnauthorized, ErrCodeNoSession, "authentication required")
	case errors.Is(err, studio.ErrSessionExpired):
		fail(c, http.StatusUnauthorized, ErrCodeSessionExpired, "session expired")
	case errors.Is(err, session.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "session rejected by backend")
	case errors.Is(err, studio.ErrBadSource):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid analysis source")
	case errors.Is(err, studio.ErrUnknownCatalogItem):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown catalog item")
	case errors.Is(err, studio.ErrUnknownHistoryEntry):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown history entry")
	case errors.Is(err, bookmarks.ErrTogglePending):
		fail(c, http.StatusConflict, ErrCodeTogglePending, "a save for this product is already in flight")
	case errors.Is(err, bookmarks.ErrBulkRemoveFailed):
		fail(c, http.StatusBadGateway, ErrCodeBulkRemoveFailed, "bulk remove failed; nothing was changed")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
