// Package studio defines the workflow orchestrator. This file centralizes
// service-level error values so that they can be consistently returned by
// orchestrator methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package studio

import "errors"

var (
	// ErrNoSession indicates that an authenticated action was attempted
	// without an established session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired indicates that the session tripped its deterministic
	// local expiry; the caller must treat the user as signed out.
	ErrSessionExpired = errors.New("session expired")

	// ErrBadSource is returned when an analysis is triggered with an unknown
	// source kind or an empty source reference.
	ErrBadSource = errors.New("invalid analysis source")

	// ErrUnknownCatalogItem is returned when a catalog-item analysis
	// references an item that is not in the catalog.
	ErrUnknownCatalogItem = errors.New("catalog item not found")

	// ErrUnknownHistoryEntry is returned when activating a history entry
	// that is not in the cache.
	ErrUnknownHistoryEntry = errors.New("history entry not found")
)
