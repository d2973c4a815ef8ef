// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file implements the bookmark ("closet") endpoints. All mutations are
// confirmed with the remote store before the local mirror changes, so the
// handlers surface backend failures directly instead of pretending success.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/domain"
)

// BookmarkService is the slice of the studio surface the bookmark endpoints
// need.
type BookmarkService interface {
	Bookmarks(ctx context.Context) ([]domain.BookmarkItem, error)
	ToggleBookmark(ctx context.Context, productID string) (bool, error)
	ClearBookmarks(ctx context.Context, ids []string) error
}

// BookmarkHandler serves the /bookmarks endpoints.
type BookmarkHandler struct {
	svc BookmarkService
}

// NewBookmarkHandler constructs a BookmarkHandler.
func NewBookmarkHandler(svc BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

// bookmarkListResponse wraps the items, newest saves first.
type bookmarkListResponse struct {
	Items []domain.BookmarkItem `json:"items"`
}

// toggleResponse reports the confirmed state after a toggle.
type toggleResponse struct {
	ProductID  string `json:"product_id"`
	Bookmarked bool   `json:"bookmarked"`
}

// clearRequest optionally narrows a bulk remove to specific products.
type clearRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// List returns the bookmark set. The first authenticated view syncs the
// mirror from the remote store; a failed sync is a failed request, never a
// silently empty list.
//
// GET /api/v1/bookmarks
func (h *BookmarkHandler) List(c *gin.Context) {
	items, err := h.svc.Bookmarks(c.Request.Context())
	if err != nil {
		failDomain(c, err)
		return
	}
	if items == nil {
		items = []domain.BookmarkItem{}
	}
	ok(c, http.StatusOK, bookmarkListResponse{Items: items})
}

// Toggle saves or removes one product. A toggle already in flight for the
// same product answers 409 and changes nothing.
//
// POST /api/v1/bookmarks/:productId/toggle
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	productID := c.Param("productId")
	if productID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product id is required")
		return
	}

	bookmarked, err := h.svc.ToggleBookmark(c.Request.Context(), productID)
	if err != nil {
		failDomain(c, err)
		return
	}
	ok(c, http.StatusOK, toggleResponse{ProductID: productID, Bookmarked: bookmarked})
}

// Clear bulk-removes the given products, or the whole set when the body is
// empty. Partial failure leaves the set unchanged and surfaces as a whole-
// operation failure.
//
// DELETE /api/v1/bookmarks
func (h *BookmarkHandler) Clear(c *gin.Context) {
	var req clearRequest
	// An empty body means "clear everything"; only a malformed one is an error.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid clear payload")
			return
		}
	}

	if err := h.svc.ClearBookmarks(c.Request.Context(), req.ProductIDs); err != nil {
		failDomain(c, err)
		return
	}
	noContent(c)
}
