package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/averios/go-style-studio/internal/domain"
)

func sampleItems() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: "c-1", Name: "Wool Winter Coat", Brand: "Northwind", ImageURL: "http://img/c-1"},
		{ID: "c-2", Name: "Linen Summer Dress", Brand: "Solstice", ImageURL: "http://img/c-2"},
		{ID: "c-3", Name: "Denim Jacket", Brand: "Northwind", ImageURL: "http://img/c-3"},
	}
}

func TestNewIndex_SkipsBlankAndDuplicateIDs(t *testing.T) {
	idx := NewIndex([]domain.CatalogItem{
		{ID: "a", Name: "First"},
		{ID: "", Name: "No ID"},
		{ID: "a", Name: "Duplicate"},
		{ID: "b", Name: "Second"},
	})

	if got := len(idx.All()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	item, found := idx.Get("a")
	if !found || item.Name != "First" {
		t.Fatalf("first occurrence must win: %+v", item)
	}
}

func TestGet(t *testing.T) {
	idx := NewIndex(sampleItems())
	if _, found := idx.Get("c-2"); !found {
		t.Fatal("known id must be found")
	}
	if _, found := idx.Get("nope"); found {
		t.Fatal("unknown id must not be found")
	}
}

func TestSearch_RanksByOverlap(t *testing.T) {
	idx := NewIndex(sampleItems())

	res := idx.Search("winter coat", 10)
	if len(res) == 0 || res[0].Item.ID != "c-1" {
		t.Fatalf("expected the coat first, got %+v", res)
	}

	// Brand-only queries match all items of that brand.
	res = idx.Search("northwind", 10)
	if len(res) != 2 {
		t.Fatalf("expected both Northwind items, got %+v", res)
	}
}

func TestSearch_DeterministicTieBreak(t *testing.T) {
	idx := NewIndex([]domain.CatalogItem{
		{ID: "z", Name: "Plain Shirt"},
		{ID: "a", Name: "Plain Shirt"},
	})
	res := idx.Search("plain shirt", 10)
	if len(res) != 2 || res[0].Item.ID != "a" {
		t.Fatalf("ties must break by id ascending, got %+v", res)
	}
}

func TestSearch_EmptyInputs(t *testing.T) {
	idx := NewIndex(sampleItems())
	if res := idx.Search("   ", 10); res != nil {
		t.Fatalf("blank query must return nil, got %+v", res)
	}
	if res := idx.Search("zzzunmatched", 10); res != nil {
		t.Fatalf("no-overlap query must return nil, got %+v", res)
	}
	if res := NewIndex(nil).Search("coat", 10); res != nil {
		t.Fatalf("empty index must return nil, got %+v", res)
	}
}

func TestSearch_LimitAndDefault(t *testing.T) {
	idx := NewIndex(sampleItems())
	if res := idx.Search("northwind", 1); len(res) != 1 {
		t.Fatalf("limit must cap results, got %d", len(res))
	}
	// k <= 0 falls back to the default limit.
	if res := idx.Search("northwind", 0); len(res) != 2 {
		t.Fatalf("k=0 must use the default limit, got %d", len(res))
	}
}

func TestNewIndexFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.json")
		payload := `[{"id":"c-1","name":"Wool Coat","brand":"Northwind","image_url":"http://img/c-1"}]`
		if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
			t.Fatal(err)
		}
		idx, err := NewIndexFromFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, found := idx.Get("c-1"); !found {
			t.Fatal("item from file must be indexed")
		}
	})

	t.Run("empty path yields empty index", func(t *testing.T) {
		idx, err := NewIndexFromFile("")
		if err != nil {
			t.Fatal(err)
		}
		if len(idx.All()) != 0 {
			t.Fatal("expected empty index")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := NewIndexFromFile(filepath.Join(dir, "absent.json")); err == nil {
			t.Fatal("expected read error")
		}
	})

	t.Run("malformed json errors", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewIndexFromFile(path); err == nil {
			t.Fatal("expected decode error")
		}
	})
}
