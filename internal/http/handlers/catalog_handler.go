// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file implements the catalog browse and search endpoints. The catalog
// is public; no session is required to browse it.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/catalog"
	"github.com/averios/go-style-studio/internal/domain"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// CatalogHandler serves the /catalog endpoints.
type CatalogHandler struct {
	idx catalog.Index
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(idx catalog.Index) *CatalogHandler {
	return &CatalogHandler{idx: idx}
}

// catalogListResponse wraps items and, for searches, their scores.
type catalogListResponse struct {
	Items []catalogEntry `json:"items"`
}

type catalogEntry struct {
	domain.CatalogItem
	Score *float64 `json:"score,omitempty"`
}

// List browses or searches the catalog. Without ?q it returns the full
// catalog in order; with ?q it returns ranked matches, up to ?limit.
//
// GET /api/v1/catalog
func (h *CatalogHandler) List(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		items := h.idx.All()
		out := make([]catalogEntry, 0, len(items))
		for _, it := range items {
			out = append(out, catalogEntry{CatalogItem: it})
		}
		ok(c, http.StatusOK, catalogListResponse{Items: out})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		limit = n
	}

	results := h.idx.Search(q, limit)
	out := make([]catalogEntry, 0, len(results))
	for _, r := range results {
		score := r.Score
		out = append(out, catalogEntry{CatalogItem: r.Item, Score: &score})
	}
	ok(c, http.StatusOK, catalogListResponse{Items: out})
}

// Get returns one catalog item by id.
//
// GET /api/v1/catalog/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	item, found := h.idx.Get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown catalog item")
		return
	}
	ok(c, http.StatusOK, item)
}
