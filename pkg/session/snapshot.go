package session

import (
	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/store"
)

// Snapshot is a read-only view of a session at one point in time. Slices and
// maps reachable from it are never written to after the snapshot is taken.
type Snapshot struct {
	SessionID  string
	Version    uint64
	ActiveTerm string
	Query      string
	// Hits and Page describe the active term. Hits is nil when the term was
	// never fetched.
	Hits      []core.Hit
	Page      int
	HasMore   bool
	Cached    bool
	IsLoading bool
	Err       error
	Results   store.Results
}

// SnapshotOf builds a snapshot of s.
func SnapshotOf(s State) Snapshot {
	snap := Snapshot{
		ActiveTerm: s.ActiveTerm,
		Query:      s.Query,
		IsLoading:  s.IsLoading,
		Err:        s.Err,
		Results:    s.Results,
	}
	if entry, ok := s.Results.Get(s.ActiveTerm); ok {
		snap.Hits = entry.Hits
		snap.Page = entry.Page
		snap.HasMore = entry.HasMore
		snap.Cached = true
	}
	return snap
}

// Failed reports whether the last fetch failed. Presentation layers hide the
// results while this is true.
func (s Snapshot) Failed() bool {
	return s.Err != nil
}
