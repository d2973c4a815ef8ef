// Package history implements the bounded, persisted cache of recent analysis
// results, plus the single-slot "active entry" pointer used to hydrate a
// result view from a thumbnail selection.
//
// Persistence is best-effort: the cache degrades gracefully on storage
// failure (retry once keeping only the newest entry, then give up silently)
// and a failed read degrades to an empty history. Persisted data is never a
// source of truth for correctness.
package history

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/averios/go-style-studio/internal/domain"
)

// DefaultLimit is the number of entries retained when no limit is configured.
const DefaultLimit = 3

// Store is the persistence contract for the cache. Implementations live in
// the repo package; tests substitute fakes.
type Store interface {
	Save(ctx context.Context, key string, entries []domain.HistoryEntry) error
	Load(ctx context.Context, key string) ([]domain.HistoryEntry, error)
	Delete(ctx context.Context, key string) error
}

// Cache holds the most recent analysis entries, newest first, capped at a
// fixed limit. It is safe for concurrent use.
type Cache struct {
	store Store
	limit int
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.Mutex
	key     string // session-scoped storage key; empty disables persistence
	entries []domain.HistoryEntry
	active  *domain.HistoryEntry
}

// NewCache constructs a Cache over store with the given entry limit.
// A limit below 1 falls back to DefaultLimit.
func NewCache(store Store, limit int, log zerolog.Logger) *Cache {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Cache{store: store, limit: limit, log: log, now: time.Now}
}

// Bind attaches the cache to a session-scoped storage key and loads whatever
// was persisted under it. A read failure degrades to an empty history.
func (c *Cache) Bind(ctx context.Context, key string) {
	entries, err := c.store.Load(ctx, key)
	if err != nil {
		entries = nil
	}
	if len(entries) > c.limit {
		entries = entries[:c.limit]
	}

	c.mu.Lock()
	c.key = key
	c.entries = entries
	c.active = nil
	c.mu.Unlock()
}

// NewEntry builds a HistoryEntry snapshot for a completed analysis. The id is
// time-based and unique per workflow instance.
func (c *Cache) NewEntry(kind domain.SourceKind, result domain.AnalysisResult) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:           strconv.FormatInt(c.now().UnixNano(), 10),
		WorkflowType: kind,
		SourceImage:  result.SourceImage,
		SourceLabel:  result.SourceLabel,
		Timestamp:    c.now().UTC(),
		Result:       result,
	}
}

// Record prepends entry and truncates to the configured limit. Analyses with
// no deducible subject image or an empty result are not historized; Record
// reports whether the entry was kept.
//
// The persistence write tolerates storage failure: on error it retries once
// with only the newest entry, then gives up silently.
func (c *Cache) Record(ctx context.Context, entry domain.HistoryEntry) bool {
	if entry.SourceImage == "" || entry.Result.Empty() {
		return false
	}

	c.mu.Lock()
	c.entries = append([]domain.HistoryEntry{entry}, c.entries...)
	if len(c.entries) > c.limit {
		c.entries = c.entries[:c.limit]
	}
	snapshot := append([]domain.HistoryEntry(nil), c.entries...)
	key := c.key
	c.mu.Unlock()

	c.persist(ctx, key, snapshot)
	return true
}

// persist writes the snapshot, degrading to the single newest entry on the
// first failure. Storage errors never propagate to callers.
func (c *Cache) persist(ctx context.Context, key string, entries []domain.HistoryEntry) {
	if key == "" || c.store == nil {
		return
	}
	if err := c.store.Save(ctx, key, entries); err != nil {
		c.log.Debug().Err(err).Msg("history persist failed; retrying with newest entry only")
		if err := c.store.Save(ctx, key, entries[:1]); err != nil {
			c.log.Debug().Err(err).Msg("history persist degraded write failed; giving up")
		}
	}
}

// Entries returns a copy of the cached list, newest first.
func (c *Cache) Entries() []domain.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.HistoryEntry(nil), c.entries...)
}

// Activate marks the entry with the given id as the currently active one and
// returns it. The active slot is separate from the bounded list.
func (c *Cache) Activate(id string) (domain.HistoryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].ID == id {
			e := c.entries[i]
			c.active = &e
			return e, true
		}
	}
	return domain.HistoryEntry{}, false
}

// Active returns the currently active entry, if any.
func (c *Cache) Active() (domain.HistoryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.HistoryEntry{}, false
	}
	return *c.active, true
}

// ClearActive drops the active pointer (navigation away from the entry).
func (c *Cache) ClearActive() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// Clear empties the list and active pointer and removes the persisted row.
// Deletion failures are swallowed like any other storage failure.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = nil
	c.active = nil
	key := c.key
	c.mu.Unlock()

	if key != "" && c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.log.Debug().Err(err).Msg("history clear failed")
		}
	}
}
