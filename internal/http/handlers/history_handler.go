// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file implements the history endpoints: listing the persisted recent
// analyses and activating an entry so its snapshot hydrates the result view
// without a backend call.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/averios/go-style-studio/internal/domain"
	"github.com/averios/go-style-studio/internal/studio"
)

// HistoryService is the slice of the studio surface the history endpoints
// need.
type HistoryService interface {
	History() []domain.HistoryEntry
	ActivateHistoryEntry(id string) error
	State() studio.State
}

// HistoryHandler serves the /history endpoints.
type HistoryHandler struct {
	svc HistoryService
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// historyListResponse wraps the entries so the shape can grow without
// breaking clients.
type historyListResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
}

// List returns the recent analyses, newest first.
//
// GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	entries := h.svc.History()
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	ok(c, http.StatusOK, historyListResponse{Entries: entries})
}

// Activate selects a history entry; the stored snapshot becomes the result
// view immediately.
//
// POST /api/v1/history/:id/activate
func (h *HistoryHandler) Activate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "history entry id is required")
		return
	}
	if err := h.svc.ActivateHistoryEntry(id); err != nil {
		failDomain(c, err)
		return
	}
	ok(c, http.StatusOK, h.svc.State())
}
