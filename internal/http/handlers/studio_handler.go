// Package handlers provides the HTTP handler implementations for the public
// API.
//
// This file implements the analysis workflow endpoints: starting and
// cancelling an analysis (including the multipart upload path), reading the
// workflow state, replaying navigation steps, and the explicit return to the
// discovery view.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/averios/go-style-studio/internal/domain"
	"github.com/averios/go-style-studio/internal/http/middleware"
	"github.com/averios/go-style-studio/internal/studio"
)

// maxUploadBytes caps a single subject image upload.
const maxUploadBytes = 10 << 20 // 10 MiB

// WorkflowService is the slice of the studio surface the workflow endpoints
// need. The concrete implementation is *studio.Studio.
type WorkflowService interface {
	StartAnalysis(ctx context.Context, kind domain.SourceKind, ref, label string) (domain.AnalysisRequest, error)
	CancelAnalysis()
	ReturnToIdle()
	State() studio.State
	Back() studio.State
	Forward() studio.State
}

// ImageUploader stores an uploaded subject image and returns its
// display-ready URL. Nil when no object store is configured.
type ImageUploader interface {
	UploadImage(ctx context.Context, r io.Reader, size int64, key, contentType string) (string, error)
}

// StudioHandler serves the /studio endpoints.
type StudioHandler struct {
	svc    WorkflowService
	images ImageUploader
}

// NewStudioHandler constructs a StudioHandler. images may be nil; the upload
// endpoint then rejects with 503.
func NewStudioHandler(svc WorkflowService, images ImageUploader) *StudioHandler {
	return &StudioHandler{svc: svc, images: images}
}

// startRequest is the JSON payload for POST /studio/analyses.
type startRequest struct {
	SourceKind string `json:"source_kind" binding:"required"`
	SourceRef  string `json:"source_ref" binding:"required"`
	Label      string `json:"label"`
}

// startResponse acknowledges a dispatched analysis.
type startResponse struct {
	RequestID   int64  `json:"request_id"`
	SourceImage string `json:"source_image,omitempty"`
	SourceLabel string `json:"source_label,omitempty"`
}

// Start dispatches a new analysis. Starting while one is in flight
// supersedes it; the older request's outcome will be discarded on arrival.
//
// POST /api/v1/studio/analyses
func (h *StudioHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid analysis payload")
		return
	}

	r, err := h.svc.StartAnalysis(c.Request.Context(), domain.SourceKind(req.SourceKind), req.SourceRef, req.Label)
	if err != nil {
		failDomain(c, err)
		return
	}
	ok(c, http.StatusAccepted, startResponse{
		RequestID:   r.ID,
		SourceImage: r.SourceImage,
		SourceLabel: r.SourceLabel,
	})
}

// Upload accepts a multipart subject image, stores it, and dispatches an
// image analysis for the stored URL in one step.
//
// POST /api/v1/studio/analyses/upload
func (h *StudioHandler) Upload(c *gin.Context) {
	if h.images == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUploadFailed, "image uploads are not configured")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'image' is required")
		return
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("image size must be between 1 byte and %d bytes", maxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read uploaded image")
		return
	}
	defer f.Close()

	key := uuid.NewString() + strings.ToLower(path.Ext(fh.Filename))
	url, err := h.images.UploadImage(c.Request.Context(), f, fh.Size, key, fh.Header.Get("Content-Type"))
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("image upload failed")
		fail(c, http.StatusBadGateway, ErrCodeUploadFailed, "image upload failed")
		return
	}

	label := c.PostForm("label")
	r, err := h.svc.StartAnalysis(c.Request.Context(), domain.SourceImageUpload, url, label)
	if err != nil {
		failDomain(c, err)
		return
	}
	ok(c, http.StatusAccepted, startResponse{
		RequestID:   r.ID,
		SourceImage: r.SourceImage,
		SourceLabel: r.SourceLabel,
	})
}

// Cancel marks the in-flight analysis stale and returns the workflow to
// idle. Idempotent.
//
// DELETE /api/v1/studio/analyses/current
func (h *StudioHandler) Cancel(c *gin.Context) {
	h.svc.CancelAnalysis()
	noContent(c)
}

// State returns the workflow snapshot.
//
// GET /api/v1/studio/state
func (h *StudioHandler) State(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.State())
}

// Back replays one backward navigation step and returns the resulting
// workflow state.
//
// POST /api/v1/studio/navigation/back
func (h *StudioHandler) Back(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Back())
}

// Forward replays one forward navigation step.
//
// POST /api/v1/studio/navigation/forward
func (h *StudioHandler) Forward(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Forward())
}

// Idle is the explicit return to the discovery view.
//
// POST /api/v1/studio/idle
func (h *StudioHandler) Idle(c *gin.Context) {
	h.svc.ReturnToIdle()
	ok(c, http.StatusOK, h.svc.State())
}
