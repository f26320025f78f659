// Package search provides a simple, deterministic, concurrency-safe in-memory
// relevance ranker for the product catalog. It is intentionally small and
// dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Generic browse queries ("show me everything you have") fall back to the
//     full listing instead of scoring
//
// Scoring favors exact phrase hits in the product name (weight 5) over
// individual keyword hits in name+description (weight 1 each). Words of two
// letters or fewer are ignored as noise.
package search

import (
	"regexp"
	"sort"
	"strings"
)

// Product is the minimal catalog view the index needs. Defined locally so the
// package has no dependency on the persistence models.
type Product struct {
	ID          uint
	Name        string
	Description string
}

// Result is a ranked product with its relevance score.
type Result struct {
	Product Product
	Score   int
}

// genericTerms mark browse intent: the customer wants the catalog, not a
// keyword match.
var genericTerms = map[string]struct{}{
	"products": {}, "items": {}, "inventory": {}, "catalog": {},
	"stock": {}, "available": {}, "list": {}, "all": {},
	"everything": {}, "show": {}, "have": {}, "sell": {}, "offer": {},
}

var nonWordRE = regexp.MustCompile(`[^\w\s]`)

// Index ranks a fixed product snapshot. Build one per catalog snapshot; it is
// read-only afterwards and safe for concurrent TopK calls.
type Index struct {
	products []Product
}

// NewIndex builds an index over a catalog snapshot.
func NewIndex(products []Product) *Index {
	cp := make([]Product, len(products))
	copy(cp, products)
	return &Index{products: cp}
}

// Len returns the number of indexed products.
func (i *Index) Len() int { return len(i.products) }

// TopK returns up to k products ranked by relevance to query. A generic
// browse query, or a specific query that matches nothing, falls back to the
// full listing (score 1 each) so the customer always sees something to buy.
func (i *Index) TopK(query string, k int) []Result {
	if k <= 0 {
		k = 5
	}

	cleaned := nonWordRE.ReplaceAllString(strings.ToLower(query), "")
	fields := strings.Fields(cleaned)

	var keywords []string
	generic := false
	for _, w := range fields {
		if _, ok := genericTerms[w]; ok {
			generic = true
		}
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}

	var scored []Result
	if !generic {
		phrase := strings.ToLower(strings.TrimSpace(query))
		for _, p := range i.products {
			text := strings.ToLower(p.Name + " " + p.Description)
			score := 0
			if phrase != "" && strings.Contains(strings.ToLower(p.Name), phrase) {
				score += 5
			}
			for _, w := range keywords {
				if strings.Contains(text, w) {
					score++
				}
			}
			if score > 0 {
				scored = append(scored, Result{Product: p, Score: score})
			}
		}
	}

	if generic || len(scored) == 0 {
		scored = scored[:0]
		for _, p := range i.products {
			scored = append(scored, Result{Product: p, Score: 1})
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Product.ID < scored[b].Product.ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
