// Package store holds the per-term accumulation of search results.
//
// Results is a value type: Merge and Dismiss return a new map and never write
// to the input map or to any hit slice reachable from it, so a Results handed
// to a renderer stays stable while the session moves on.
package store

import (
	"sort"

	"github.com/rubiojr/hnsearch/pkg/core"
)

// Entry is the accumulated state for one search term.
type Entry struct {
	Hits []core.Hit `json:"hits"`
	// Page is the page number of the most recently merged response.
	Page int `json:"page"`
	// HasMore is what the most recently merged response said about the
	// pages after it.
	HasMore bool `json:"has_more"`
}

// Results maps a search term to its accumulated hits.
type Results map[string]Entry

// Has reports whether term has been fetched at least once.
func (r Results) Has(term string) bool {
	_, ok := r[term]
	return ok
}

// Get returns the entry for term.
func (r Results) Get(term string) (Entry, bool) {
	e, ok := r[term]
	return e, ok
}

// Terms returns the cached terms in lexical order.
func (r Results) Terms() []string {
	terms := make([]string, 0, len(r))
	for term := range r {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Merge appends page's hits after the hits already stored for term and
// records page.Page as the term's current page.
func Merge(r Results, term string, page core.ResultPage) Results {
	old := r[term].Hits

	hits := make([]core.Hit, 0, len(old)+len(page.Hits))
	hits = append(hits, old...)
	hits = append(hits, page.Hits...)

	out := clone(r)
	out[term] = Entry{Hits: hits, Page: page.Page, HasMore: page.HasMore()}
	return out
}

// Dismiss removes every hit of term whose ObjectID equals id. The term's page
// is preserved. Unknown terms or ids yield an unchanged copy.
func Dismiss(r Results, term, id string) Results {
	out := clone(r)

	entry, ok := r[term]
	if !ok {
		return out
	}

	hits := make([]core.Hit, 0, len(entry.Hits))
	for _, h := range entry.Hits {
		if h.ObjectID != id {
			hits = append(hits, h)
		}
	}
	out[term] = Entry{Hits: hits, Page: entry.Page, HasMore: entry.HasMore}
	return out
}

func clone(r Results) Results {
	out := make(Results, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}
