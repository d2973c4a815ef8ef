// Package navigation implements the result binder: an explicit navigation
// stack with push/replace/back/forward semantics and attached serializable
// snapshots, mirroring browser history integration. A committed result view
// becomes a navigable entry that can be restored for free — walking the stack
// never re-triggers an analysis.
package navigation

import (
	"net/url"
	"sync"

	"github.com/averios/go-style-studio/internal/domain"
)

// resultMarker is the query parameter that tags an entry as a result view.
const (
	resultMarkerKey   = "view"
	resultMarkerValue = "result"
)

// Entry is one navigation stack frame: a URL plus the optional snapshot
// attached when the entry was pushed.
type Entry struct {
	URL   string                  `json:"url"`
	State *domain.NavigationState `json:"state,omitempty"`
}

// IsResult reports whether the entry's URL carries the result marker.
func (e Entry) IsResult() bool {
	u, err := url.Parse(e.URL)
	if err != nil {
		return false
	}
	return u.Query().Get(resultMarkerKey) == resultMarkerValue
}

// Binder owns the navigation stack for one workflow instance. It is safe for
// concurrent use.
type Binder struct {
	mu      sync.Mutex
	baseURL string
	entries []Entry
	pos     int
}

// NewBinder constructs a Binder whose stack starts at the given base URL
// (the discovery screen) with no attached state.
func NewBinder(baseURL string) *Binder {
	if baseURL == "" {
		baseURL = "/studio"
	}
	return &Binder{
		baseURL: baseURL,
		entries: []Entry{{URL: baseURL}},
	}
}

// Commit pushes a new entry carrying the full navigation snapshot, with the
// result marker added to the URL. As with a browser push, any forward entries
// beyond the current position are dropped. Commit must be called exactly once
// per completed analysis the user did not cancel.
func (b *Binder) Commit(result *domain.AnalysisResult, sourceImage, sourceLabel string) {
	entry := Entry{
		URL: b.markedURL(),
		State: &domain.NavigationState{
			Result:      result,
			SourceImage: sourceImage,
			SourceLabel: sourceLabel,
		},
	}

	b.mu.Lock()
	b.entries = append(b.entries[:b.pos+1], entry)
	b.pos = len(b.entries) - 1
	b.mu.Unlock()
}

// Back moves one entry towards the bottom of the stack. The second return is
// false when already at the bottom (no movement, current entry returned).
func (b *Binder) Back() (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos == 0 {
		return b.entries[b.pos], false
	}
	b.pos--
	return b.entries[b.pos], true
}

// Forward moves one entry towards the top of the stack. The second return is
// false when already at the top.
func (b *Binder) Forward() (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pos >= len(b.entries)-1 {
		return b.entries[b.pos], false
	}
	b.pos++
	return b.entries[b.pos], true
}

// Reset strips the result marker from the current entry with a
// non-destructive replace: the stack depth and position are unchanged and no
// back-stack entry is fabricated. Used when the user explicitly returns to
// the discovery screen.
func (b *Binder) Reset() {
	b.mu.Lock()
	b.entries[b.pos] = Entry{URL: b.baseURL}
	b.mu.Unlock()
}

// Current returns the entry at the current stack position.
func (b *Binder) Current() Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[b.pos]
}

// Depth returns the number of entries on the stack.
func (b *Binder) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// markedURL returns the base URL with the result marker appended.
func (b *Binder) markedURL() string {
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return b.baseURL + "?" + resultMarkerKey + "=" + resultMarkerValue
	}
	q := u.Query()
	q.Set(resultMarkerKey, resultMarkerValue)
	u.RawQuery = q.Encode()
	return u.String()
}
