package view

import (
	"testing"

	"github.com/rubiojr/hnsearch/pkg/core"
)

func fixture() []core.Hit {
	return []core.Hit{
		{ObjectID: "a", Title: text("Zig"), Author: text("mia"), NumComments: 5, Points: 10},
		{ObjectID: "b", Title: text("Ada"), Author: text("bob"), NumComments: 7, Points: 10},
		{ObjectID: "c", Author: text("ann"), NumComments: 5, Points: 3},
		{ObjectID: "d", Title: text("Go"), NumComments: 1, Points: 42},
	}
}

func text(s string) *string {
	return &s
}

func ids(hits []core.Hit) string {
	s := ""
	for _, h := range hits {
		s += h.ObjectID
	}
	return s
}

func TestSort(t *testing.T) {
	tests := []struct {
		key  SortKey
		want string
	}{
		{SortNone, "abcd"},
		{SortTitle, "bdac"},
		{SortAuthor, "cbad"},
		// Ascending 5(a) 5(c) stays a,c; reversed it becomes c,a.
		{SortComments, "bcad"},
		{SortPoints, "dbac"},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if got := ids(Sort(fixture(), tt.key)); got != tt.want {
				t.Errorf("Sort(%s) = %s, want %s", tt.key, got, tt.want)
			}
		})
	}
}

func TestSortTextEmptyBeforeMissing(t *testing.T) {
	hits := []core.Hit{
		{ObjectID: "b", Title: text("b")},
		{ObjectID: "null"},
		{ObjectID: "empty", Title: text("")},
		{ObjectID: "a", Title: text("a")},
	}

	sorted := Sort(hits, SortTitle)
	if got := ids(sorted); got != "emptyabnull" {
		t.Fatalf("Sort(TITLE) = %s, want emptyabnull", got)
	}
	for i := 1; i < len(sorted)-1; i++ {
		prev, cur := sorted[i-1].TitleText(), sorted[i].TitleText()
		if prev > cur {
			t.Errorf("not non-decreasing at %d: %q > %q", i, prev, cur)
		}
	}
}

func TestSortDoesNotModifyInput(t *testing.T) {
	hits := fixture()
	_ = Sort(hits, SortTitle)
	_ = Sorter{Key: SortPoints, Reverse: true}.Apply(hits)
	if got := ids(hits); got != "abcd" {
		t.Errorf("input reordered to %s", got)
	}
}

func TestSorterApply(t *testing.T) {
	s := Sorter{Key: SortTitle, Reverse: true}
	if got := ids(s.Apply(fixture())); got != "cadb" {
		t.Errorf("reversed title sort = %s, want cadb", got)
	}
	if got := ids(Sorter{Reverse: true}.Apply(fixture())); got != "dcba" {
		t.Errorf("reversed unsorted = %s, want dcba", got)
	}
}

func TestSorterToggle(t *testing.T) {
	var s Sorter

	s = s.Toggle(SortTitle)
	if s.Key != SortTitle || s.Reverse {
		t.Fatalf("first pick: %+v", s)
	}
	s = s.Toggle(SortTitle)
	if !s.Reverse {
		t.Fatalf("second pick should reverse: %+v", s)
	}
	s = s.Toggle(SortTitle)
	if s.Reverse {
		t.Fatalf("third pick should restore: %+v", s)
	}
	s = s.Toggle(SortTitle).Toggle(SortPoints)
	if s.Key != SortPoints || s.Reverse {
		t.Fatalf("switching keys must reset direction: %+v", s)
	}
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{
		"":         SortNone,
		"title":    SortTitle,
		"POINTS":   SortPoints,
		" author ": SortAuthor,
	} {
		got, err := ParseSortKey(in)
		if err != nil || got != want {
			t.Errorf("ParseSortKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSortKey("date"); err == nil {
		t.Error("expected error for unknown key")
	}
}
