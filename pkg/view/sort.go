// Package view orders a term's hits for display. Sorting never touches the
// stored results; every function here returns a new slice.
package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rubiojr/hnsearch/pkg/core"
)

// SortKey names a column the table can be ordered by.
type SortKey string

const (
	SortNone     SortKey = "NONE"
	SortTitle    SortKey = "TITLE"
	SortAuthor   SortKey = "AUTHOR"
	SortComments SortKey = "COMMENTS"
	SortPoints   SortKey = "POINTS"
)

// SortKeys lists the keys in column order.
var SortKeys = []SortKey{SortNone, SortTitle, SortAuthor, SortComments, SortPoints}

// ParseSortKey accepts a key in any case. Empty means SortNone.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortNone, nil
	}
	key := SortKey(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, key) {
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Sorter is the table's sort state.
type Sorter struct {
	Key     SortKey `json:"sortKey"`
	Reverse bool    `json:"isSortReverse"`
}

// Toggle selects key. Picking the current key again flips the direction;
// picking another key starts unreversed.
func (s Sorter) Toggle(key SortKey) Sorter {
	return Sorter{Key: key, Reverse: s.Key == key && !s.Reverse}
}

// Apply returns hits ordered by the sorter.
func (s Sorter) Apply(hits []core.Hit) []core.Hit {
	out := Sort(hits, s.Key)
	if s.Reverse {
		slices.Reverse(out)
	}
	return out
}

// Sort returns a copy of hits ordered by key. Text columns sort ascending
// with missing (null) values last; an empty string is a value and sorts
// first. Numeric columns sort descending, as the stable
// ascending order reversed, so equal counts come out in reverse input order.
func Sort(hits []core.Hit, key SortKey) []core.Hit {
	out := slices.Clone(hits)
	switch key {
	case SortTitle:
		slices.SortStableFunc(out, byText(func(h core.Hit) *string { return h.Title }))
	case SortAuthor:
		slices.SortStableFunc(out, byText(func(h core.Hit) *string { return h.Author }))
	case SortComments:
		slices.SortStableFunc(out, func(a, b core.Hit) int { return a.NumComments - b.NumComments })
		slices.Reverse(out)
	case SortPoints:
		slices.SortStableFunc(out, func(a, b core.Hit) int { return a.Points - b.Points })
		slices.Reverse(out)
	}
	return out
}

func byText(field func(core.Hit) *string) func(a, b core.Hit) int {
	return func(a, b core.Hit) int {
		x, y := field(a), field(b)
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return 1
		case y == nil:
			return -1
		}
		return strings.Compare(*x, *y)
	}
}
