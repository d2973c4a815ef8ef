// Package catalog provides a simple, deterministic, concurrency-safe
// in-memory index over the storefront catalog. It backs catalog browsing and
// keyword search, and resolves item labels and images when a catalog item is
// selected for analysis.
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization over item name and brand
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// item's token set: score = |Q ∩ I| / |Q ∪ I|.
package catalog

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/averios/go-style-studio/internal/domain"
)

// Result is a ranked catalog item with its similarity score.
type Result struct {
	Item  domain.CatalogItem
	Score float64
}

// Index is the read surface over the catalog.
type Index interface {
	// Get returns the item with the given id.
	Get(id string) (domain.CatalogItem, bool)
	// All returns every item in catalog order.
	All() []domain.CatalogItem
	// Search returns up to k best-matching items for the query.
	Search(query string, k int) []Result
}

type indexed struct {
	item   domain.CatalogItem
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	items []indexed
	byID  map[string]int
}

// NewIndexFromFile builds an Index from a JSON file holding an array of
// catalog items. An empty path yields an empty index.
func NewIndexFromFile(path string) (Index, error) {
	if path == "" {
		return NewIndex(nil), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return NewIndex(nil), err
	}
	var items []domain.CatalogItem
	if err := json.Unmarshal(b, &items); err != nil {
		return NewIndex(nil), err
	}
	return NewIndex(items), nil
}

// NewIndex builds an Index directly from a slice of items. Items without an
// id are skipped; on duplicate ids the first occurrence wins.
func NewIndex(items []domain.CatalogItem) Index {
	idx := &index{byID: make(map[string]int, len(items))}
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			continue
		}
		if _, dup := idx.byID[it.ID]; dup {
			continue
		}
		toks := tokenize(it.Name + " " + it.Brand)
		idx.byID[it.ID] = len(idx.items)
		idx.items = append(idx.items, indexed{item: it, tokens: toks, tLen: len(toks)})
	}
	return idx
}

// Get returns the item with the given id.
func (i *index) Get(id string) (domain.CatalogItem, bool) {
	if pos, ok := i.byID[id]; ok {
		return i.items[pos].item, true
	}
	return domain.CatalogItem{}, false
}

// All returns every item in catalog order.
func (i *index) All() []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(i.items))
	for n := range i.items {
		out[n] = i.items[n].item
	}
	return out
}

// Search returns up to k best-matching items by Jaccard similarity.
func (i *index) Search(query string, k int) []Result {
	if len(i.items) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, len(i.items))
	for _, d := range i.items {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, Result{Item: d.item, Score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].Item.ID < buf[b].Item.ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
