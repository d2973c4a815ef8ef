package navigation

import (
	"encoding/json"
	"testing"

	"github.com/averios/go-style-studio/internal/domain"
)

func result(label string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		SourceImage: "http://img/" + label,
		SourceLabel: label,
		Payload:     json.RawMessage(`{}`),
	}
}

func TestNewBinder_StartsAtBase(t *testing.T) {
	b := NewBinder("/studio")
	cur := b.Current()
	if cur.URL != "/studio" || cur.State != nil {
		t.Fatalf("unexpected initial entry: %+v", cur)
	}
	if cur.IsResult() {
		t.Fatal("base entry must not carry the result marker")
	}
	if b.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", b.Depth())
	}
}

func TestCommit_PushesMarkedEntryWithSnapshot(t *testing.T) {
	b := NewBinder("/studio")
	b.Commit(result("Jacket"), "http://img/Jacket", "Jacket")

	cur := b.Current()
	if !cur.IsResult() {
		t.Fatalf("committed entry must carry the result marker, url=%q", cur.URL)
	}
	if cur.State == nil || cur.State.Result == nil || cur.State.SourceLabel != "Jacket" {
		t.Fatalf("snapshot missing: %+v", cur.State)
	}
	if b.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", b.Depth())
	}
}

func TestBackForward_WalkTheStack(t *testing.T) {
	b := NewBinder("/studio")
	b.Commit(result("One"), "", "One")

	entry, moved := b.Back()
	if !moved || entry.IsResult() {
		t.Fatalf("back should land on base entry: moved=%v entry=%+v", moved, entry)
	}

	// Bottom of the stack: no movement.
	entry, moved = b.Back()
	if moved {
		t.Fatal("back at the bottom must not move")
	}
	if entry.URL != "/studio" {
		t.Fatalf("expected base entry, got %q", entry.URL)
	}

	entry, moved = b.Forward()
	if !moved || !entry.IsResult() {
		t.Fatalf("forward should restore the result entry: moved=%v entry=%+v", moved, entry)
	}
	if entry.State == nil || entry.State.SourceLabel != "One" {
		t.Fatalf("snapshot lost on forward: %+v", entry.State)
	}

	// Top of the stack: no movement.
	if _, moved = b.Forward(); moved {
		t.Fatal("forward at the top must not move")
	}
}

func TestCommit_TruncatesForwardEntries(t *testing.T) {
	b := NewBinder("/studio")
	b.Commit(result("One"), "", "One")
	b.Back()
	// Pushing from the middle drops the stale forward entry.
	b.Commit(result("Two"), "", "Two")

	if b.Depth() != 2 {
		t.Fatalf("forward entries must be truncated, depth=%d", b.Depth())
	}
	entry, moved := b.Forward()
	if moved {
		t.Fatalf("no forward entry should remain, got %+v", entry)
	}
	if got := b.Current().State.SourceLabel; got != "Two" {
		t.Fatalf("expected the new entry on top, got %q", got)
	}
}

func TestReset_ReplacesWithoutChangingDepth(t *testing.T) {
	b := NewBinder("/studio")
	b.Commit(result("One"), "", "One")
	depth := b.Depth()

	b.Reset()

	if b.Depth() != depth {
		t.Fatalf("reset must not change depth: %d != %d", b.Depth(), depth)
	}
	cur := b.Current()
	if cur.IsResult() || cur.State != nil {
		t.Fatalf("reset must strip marker and state: %+v", cur)
	}
	// The replaced entry leaves no fabricated back entry.
	if _, moved := b.Forward(); moved {
		t.Fatal("reset must not fabricate a forward entry")
	}
}

func TestIsResult_IgnoresForeignQueryParams(t *testing.T) {
	if (Entry{URL: "/studio?view=grid"}).IsResult() {
		t.Fatal("foreign marker value must not count")
	}
	if !(Entry{URL: "/studio?a=b&view=result"}).IsResult() {
		t.Fatal("marker must be recognized among other params")
	}
	if (Entry{URL: "://bad"}).IsResult() {
		t.Fatal("unparsable URLs are not result entries")
	}
}

func TestNewBinder_EmptyBaseDefaults(t *testing.T) {
	b := NewBinder("")
	if b.Current().URL != "/studio" {
		t.Fatalf("expected default base, got %q", b.Current().URL)
	}
}
