package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/averios/go-style-studio/internal/domain"
)

// fakeStore records calls and can be told to fail saves or loads.
type fakeStore struct {
	mu       sync.Mutex
	saved    map[string][]domain.HistoryEntry
	saves    [][]domain.HistoryEntry
	failN    int // fail the next N saves
	loadErr  error
	deleted  []string
	saveErrs int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string][]domain.HistoryEntry)}
}

func (f *fakeStore) Save(ctx context.Context, key string, entries []domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]domain.HistoryEntry(nil), entries...)
	f.saves = append(f.saves, cp)
	if f.failN > 0 {
		f.failN--
		f.saveErrs++
		return errors.New("disk full")
	}
	f.saved[key] = cp
	return nil
}

func (f *fakeStore) Load(ctx context.Context, key string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.saved[key], nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.saved, key)
	return nil
}

func okResult(label string) domain.AnalysisResult {
	return domain.AnalysisResult{
		SourceImage: "http://img/" + label,
		SourceLabel: label,
		Payload:     json.RawMessage(`{"style_tags":[]}`),
		CompletedAt: time.Now().UTC(),
	}
}

func testCache(store Store, limit int) *Cache {
	return NewCache(store, limit, zerolog.Nop())
}

func TestRecord_PrependsAndCaps(t *testing.T) {
	st := newFakeStore()
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")

	for i := 1; i <= 5; i++ {
		e := c.NewEntry(domain.SourceCatalogItem, okResult(fmt.Sprintf("E%d", i)))
		e.ID = fmt.Sprintf("id-%d", i) // deterministic ids for assertions
		if !c.Record(context.Background(), e) {
			t.Fatalf("entry %d should be recorded", i)
		}
	}

	got := c.Entries()
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(got))
	}
	for i, want := range []string{"id-5", "id-4", "id-3"} {
		if got[i].ID != want {
			t.Fatalf("entry %d: expected %s, got %s (oldest must fall off)", i, want, got[i].ID)
		}
	}

	// Persisted list mirrors the in-memory one.
	if persisted := st.saved["sess-1"]; len(persisted) != 3 || persisted[0].ID != "id-5" {
		t.Fatalf("persisted list mismatch: %+v", persisted)
	}
}

func TestRecord_SkipsUnhistorizableEntries(t *testing.T) {
	st := newFakeStore()
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")

	noImage := c.NewEntry(domain.SourceCatalogItem, domain.AnalysisResult{SourceLabel: "x", Payload: json.RawMessage(`{}`)})
	if c.Record(context.Background(), noImage) {
		t.Fatal("entry without a subject image must not be historized")
	}

	empty := c.NewEntry(domain.SourceImageUpload, domain.AnalysisResult{SourceImage: "http://img/x"})
	if c.Record(context.Background(), empty) {
		t.Fatal("entry with an empty result must not be historized")
	}

	if len(c.Entries()) != 0 || len(st.saves) != 0 {
		t.Fatal("skipped entries must not touch memory or storage")
	}
}

func TestRecord_DegradesOnStorageFailure(t *testing.T) {
	st := newFakeStore()
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")

	c.Record(context.Background(), mustEntry(c, "A"))
	c.Record(context.Background(), mustEntry(c, "B"))

	// Next save fails once; the retry writes only the newest entry.
	st.mu.Lock()
	st.failN = 1
	st.mu.Unlock()
	e := mustEntry(c, "C")
	if !c.Record(context.Background(), e) {
		t.Fatal("storage failure must not reject the in-memory record")
	}

	st.mu.Lock()
	last := st.saves[len(st.saves)-1]
	st.mu.Unlock()
	if len(last) != 1 || last[0].ID != e.ID {
		t.Fatalf("degraded retry must keep only the newest entry, got %+v", last)
	}

	// In-memory list is unaffected by the degradation.
	if got := c.Entries(); len(got) != 3 || got[0].ID != e.ID {
		t.Fatalf("in-memory list corrupted: %+v", got)
	}
}

func TestRecord_SwallowsTotalStorageFailure(t *testing.T) {
	st := newFakeStore()
	st.failN = 2 // first write and the degraded retry both fail
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")

	if !c.Record(context.Background(), mustEntry(c, "A")) {
		t.Fatal("total storage failure must stay invisible to the caller")
	}
	if len(c.Entries()) != 1 {
		t.Fatal("in-memory record must survive storage failure")
	}
}

func TestBind_LoadFailureDegradesToEmpty(t *testing.T) {
	st := newFakeStore()
	st.loadErr = errors.New("corrupt row")
	c := testCache(st, 3)

	c.Bind(context.Background(), "sess-1")
	if len(c.Entries()) != 0 {
		t.Fatal("load failure must yield an empty history")
	}
}

func TestBind_TruncatesOverLimitRows(t *testing.T) {
	st := newFakeStore()
	var persisted []domain.HistoryEntry
	for i := 0; i < 5; i++ {
		persisted = append(persisted, domain.HistoryEntry{ID: fmt.Sprintf("p-%d", i)})
	}
	st.saved["sess-1"] = persisted

	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")
	if got := c.Entries(); len(got) != 3 || got[0].ID != "p-0" {
		t.Fatalf("expected the first 3 persisted rows, got %+v", got)
	}
}

func TestActivate_And_ClearActive(t *testing.T) {
	st := newFakeStore()
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")

	e := mustEntry(c, "A")
	c.Record(context.Background(), e)

	got, found := c.Activate(e.ID)
	if !found || got.ID != e.ID {
		t.Fatalf("activate failed: %+v found=%v", got, found)
	}
	if act, okA := c.Active(); !okA || act.ID != e.ID {
		t.Fatal("active pointer not set")
	}

	if _, found := c.Activate("nope"); found {
		t.Fatal("unknown id must not activate")
	}
	// A failed activate leaves the previous pointer alone.
	if _, okA := c.Active(); !okA {
		t.Fatal("failed activate must not clear the pointer")
	}

	c.ClearActive()
	if _, okA := c.Active(); okA {
		t.Fatal("pointer must be cleared")
	}
}

func TestClear_EmptiesAndDeletesRow(t *testing.T) {
	st := newFakeStore()
	c := testCache(st, 3)
	c.Bind(context.Background(), "sess-1")
	c.Record(context.Background(), mustEntry(c, "A"))
	c.Activate(c.Entries()[0].ID)

	c.Clear(context.Background())

	if len(c.Entries()) != 0 {
		t.Fatal("entries must be gone")
	}
	if _, okA := c.Active(); okA {
		t.Fatal("active pointer must be gone")
	}
	if len(st.deleted) != 1 || st.deleted[0] != "sess-1" {
		t.Fatalf("persisted row not deleted: %+v", st.deleted)
	}
}

func TestNewCache_LimitFallback(t *testing.T) {
	c := testCache(newFakeStore(), 0)
	if c.limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, c.limit)
	}
}

func mustEntry(c *Cache, label string) domain.HistoryEntry {
	e := c.NewEntry(domain.SourceCatalogItem, okResult(label))
	e.ID = "id-" + label
	return e
}
