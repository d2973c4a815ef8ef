// Package domain defines the data model shared by the style-studio core:
// analysis requests and results, history entries, session state, bookmarks,
// and the navigation snapshot. Except for HistoryRecord (the persisted form
// of the history cache) these types are plain values with no storage mapping.
package domain

import (
	"encoding/json"
	"time"
)

// SourceKind identifies what triggered an analysis workflow.
type SourceKind string

const (
	// SourceImageUpload marks an analysis of a user-uploaded image.
	SourceImageUpload SourceKind = "image-upload"
	// SourceCatalogItem marks an analysis of a selected catalog item.
	SourceCatalogItem SourceKind = "catalog-item"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	return k == SourceImageUpload || k == SourceCatalogItem
}

// AnalysisRequest describes a single triggered analysis. Requests are never
// mutated after creation; whether a request is still the current one is
// tracked by the controller, not on the request itself.
//
// Fields:
//   - ID: monotonically increasing, unique per controller instance.
//   - SourceKind: image-upload or catalog-item.
//   - SourceRef: opaque reference to the analyzed subject (blob URL, item id).
//   - SourceImage: display-ready image reference for the subject, if known.
//   - SourceLabel: human-readable name of the subject.
//   - StartedAt: trigger timestamp.
type AnalysisRequest struct {
	ID          int64      `json:"id"`
	SourceKind  SourceKind `json:"source_kind"`
	SourceRef   string     `json:"source_ref"`
	SourceImage string     `json:"source_image,omitempty"`
	SourceLabel string     `json:"source_label,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
}

// AnalysisResult is the outcome of a completed analysis. The payload is the
// backend-defined structure (similarity lists, score vectors) and is opaque
// to the core. Results are owned by the orchestrator once produced and are
// immutable.
type AnalysisResult struct {
	SourceImage string          `json:"source_image"`
	SourceLabel string          `json:"source_label"`
	Payload     json.RawMessage `json:"payload"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Empty reports whether the result carries no payload.
func (r AnalysisResult) Empty() bool {
	return len(r.Payload) == 0 || string(r.Payload) == "null"
}

// HistoryEntry is a snapshot of a completed analysis kept in the bounded
// history cache. Entries are created on successful completion, never mutated,
// and removed only by eviction or explicit clear.
type HistoryEntry struct {
	ID           string         `json:"id"`
	WorkflowType SourceKind     `json:"workflow_type"`
	SourceImage  string         `json:"source_image"`
	SourceLabel  string         `json:"source_label"`
	Timestamp    time.Time      `json:"timestamp"`
	Result       AnalysisResult `json:"result"`
}

// HistoryRecord is the persisted form of the history cache: one row per
// session-scoped storage key holding the JSON-encoded entry list (capped by
// the cache, newest first).
type HistoryRecord struct {
	SessionKey string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Entries    []byte    `gorm:"type:BLOB NOT NULL"`
	UpdatedAt  time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (HistoryRecord) TableName() string { return "history" }

// SessionState is the process-wide authenticated-user state. It is created on
// successful login, destroyed on logout, local-expiry trip, or confirmed
// remote invalidation, and never silently refreshed.
type SessionState struct {
	Token       string    `json:"-"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session is past its deterministic local
// expiry at the given instant. Any read of authenticated state must consult
// this before acting.
func (s SessionState) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// BookmarkItem is one saved product in the bookmark set. Membership is
// uniquely keyed by ProductID.
type BookmarkItem struct {
	ProductID string    `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// NavigationState is the serializable snapshot attached to a navigation
// entry. It carries enough to restore a result view without re-querying the
// backend.
type NavigationState struct {
	Result      *AnalysisResult `json:"result"`
	SourceImage string          `json:"source_image"`
	SourceLabel string          `json:"source_label"`
}

// CatalogItem is a browsable product in the storefront catalog.
type CatalogItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
