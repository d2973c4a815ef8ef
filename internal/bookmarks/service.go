// Package bookmarks mirrors the authoritative server-side bookmark set
// locally. The mirror is deliberately not optimistic: bookmarks are
// cross-device state, so the local set mutates only after the remote call
// confirms. A per-product in-flight guard serializes toggles for the same
// product while letting different products resolve independently and out of
// order.
package bookmarks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/averios/go-style-studio/internal/domain"
)

// Service-level sentinel errors.
var (
	// ErrTogglePending is returned when a toggle for the same product is
	// already in flight; the new request is ignored.
	ErrTogglePending = errors.New("toggle already in flight for product")

	// ErrBulkRemoveFailed is returned when a bulk delete did not apply in
	// full. The local mirror is left unchanged.
	ErrBulkRemoveFailed = errors.New("bulk bookmark delete failed")
)

// Client is the remote bookmark store contract.
type Client interface {
	// Fetch returns the server's current bookmark list.
	Fetch(ctx context.Context, token string) ([]domain.BookmarkItem, error)

	// Add saves one product remotely.
	Add(ctx context.Context, token, productID string) error

	// Remove deletes the given products remotely as one operation.
	Remove(ctx context.Context, token string, productIDs []string) error
}

// Service maintains the local bookmark mirror. It is safe for concurrent use.
type Service struct {
	client Client
	now    func() time.Time

	mu       sync.Mutex
	items    []domain.BookmarkItem // newest first
	inflight map[string]struct{}   // productIDs with a pending toggle
	synced   bool                  // true after a successful Fetch
}

// NewService constructs a Service over the remote client.
func NewService(client Client) *Service {
	return &Service{
		client:   client,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
}

// Toggle adds the product if absent or removes it if present, mutating the
// local mirror only after the remote call succeeds. A second toggle for the
// same product while one is pending returns ErrTogglePending and has no
// effect. The return reports whether the product ended up saved.
func (s *Service) Toggle(ctx context.Context, token, productID string, meta domain.BookmarkItem) (saved bool, err error) {
	s.mu.Lock()
	if _, pending := s.inflight[productID]; pending {
		s.mu.Unlock()
		return false, ErrTogglePending
	}
	s.inflight[productID] = struct{}{}
	present := s.indexOf(productID) >= 0
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, productID)
		s.mu.Unlock()
	}()

	if present {
		if err := s.client.Remove(ctx, token, []string{productID}); err != nil {
			return true, err
		}
		s.mu.Lock()
		if i := s.indexOf(productID); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
		s.mu.Unlock()
		return false, nil
	}

	if err := s.client.Add(ctx, token, productID); err != nil {
		return false, err
	}
	item := meta
	item.ProductID = productID
	if item.SavedAt.IsZero() {
		item.SavedAt = s.now().UTC()
	}
	s.mu.Lock()
	if s.indexOf(productID) < 0 {
		s.items = append([]domain.BookmarkItem{item}, s.items...)
	}
	s.mu.Unlock()
	return true, nil
}

// SyncAll replaces the local mirror with the server's list, sorted newest
// first by save time. Until the first successful sync the mirror is only a
// best-effort view.
func (s *Service) SyncAll(ctx context.Context, token string) error {
	items, err := s.client.Fetch(ctx, token)
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SavedAt.After(items[j].SavedAt)
	})

	s.mu.Lock()
	s.items = items
	s.synced = true
	s.mu.Unlock()
	return nil
}

// ClearAll bulk-deletes the given products (all bookmarks when ids is empty).
// On any failure the local mirror is left unchanged and ErrBulkRemoveFailed
// is returned; there is no partial apply.
func (s *Service) ClearAll(ctx context.Context, token string, ids []string) error {
	if len(ids) == 0 {
		s.mu.Lock()
		for _, it := range s.items {
			ids = append(ids, it.ProductID)
		}
		s.mu.Unlock()
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.client.Remove(ctx, token, ids); err != nil {
		return errors.Join(ErrBulkRemoveFailed, err)
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	kept := s.items[:0]
	for _, it := range s.items {
		if _, gone := drop[it.ProductID]; !gone {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the local mirror, newest first.
func (s *Service) Items() []domain.BookmarkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BookmarkItem(nil), s.items...)
}

// Synced reports whether the mirror has been replaced by a successful fetch
// at least once since the last Reset.
func (s *Service) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

// Contains reports local membership of productID.
func (s *Service) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) >= 0
}

// Reset drops the mirror (logout or forced sign-out).
func (s *Service) Reset() {
	s.mu.Lock()
	s.items = nil
	s.synced = false
	s.mu.Unlock()
}

// indexOf returns the position of productID in the mirror, or -1.
// Caller must hold s.mu.
func (s *Service) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
