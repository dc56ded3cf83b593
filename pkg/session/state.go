package session

import (
	"errors"

	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/store"
)

var (
	// ErrEmptyTerm is returned when submitting a blank search term.
	ErrEmptyTerm = errors.New("search term is empty")

	// ErrNoActiveTerm is returned by LoadMore before any term was submitted.
	ErrNoActiveTerm = errors.New("no active search term")
)

// StalePolicy decides what happens to a response that arrives after a newer
// request for the same term was issued.
type StalePolicy string

const (
	// StaleLenient merges every response, in arrival order.
	StaleLenient StalePolicy = "lenient"
	// StaleLatest drops responses superseded by a newer request for the same
	// term.
	StaleLatest StalePolicy = "latest"
)

// ParseStalePolicy maps a config value to a policy. Empty means lenient.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch StalePolicy(s) {
	case "", StaleLenient:
		return StaleLenient, nil
	case StaleLatest:
		return StaleLatest, nil
	}
	return "", errors.New("unknown stale response policy " + s)
}

// FetchRequest describes one page fetch for a term.
type FetchRequest struct {
	Term string
	Page int
	// Generation is assigned by FetchStarted and increases with every request
	// issued by the session.
	Generation uint64
}

// State is the whole session state. Transition functions in this file take a
// State and return a new one; none of them modify their argument.
type State struct {
	// ActiveTerm is the term whose results are being shown.
	ActiveTerm string
	// Query is the current text of the search box.
	Query     string
	Results   store.Results
	IsLoading bool
	// Err holds the last fetch failure until a fetch succeeds.
	Err error

	policy      StalePolicy
	inFlight    int
	nextGen     uint64
	generations map[string]uint64
}

// NewState returns the state of a fresh session with query pre-filled.
func NewState(query string, policy StalePolicy) State {
	if policy == "" {
		policy = StaleLenient
	}
	return State{
		Query:       query,
		Results:     store.Results{},
		policy:      policy,
		generations: map[string]uint64{},
	}
}

// NeedsFetch reports whether term has never been fetched. A term with an
// entry is considered cached for the rest of the session.
func NeedsFetch(term string, results store.Results) bool {
	return !results.Has(term)
}

// ChangeQuery updates the search box text.
func ChangeQuery(s State, text string) State {
	s.Query = text
	return s
}

// Submit makes term the active term. It returns a page 0 request only when
// the term has no cached results.
func Submit(s State, term string) (State, *FetchRequest, error) {
	term = core.NormalizeTerm(term)
	if term == "" {
		return s, nil, ErrEmptyTerm
	}

	s.ActiveTerm = term
	s.Query = term
	if !NeedsFetch(term, s.Results) {
		return s, nil, nil
	}
	return s, &FetchRequest{Term: term, Page: 0}, nil
}

// LoadMore requests the page after the active term's current page. It never
// consults the cache.
func LoadMore(s State) (State, FetchRequest, error) {
	if s.ActiveTerm == "" {
		return s, FetchRequest{}, ErrNoActiveTerm
	}
	entry, _ := s.Results.Get(s.ActiveTerm)
	return s, FetchRequest{Term: s.ActiveTerm, Page: entry.Page + 1}, nil
}

// Dismiss removes the hit with id from the active term's results.
func Dismiss(s State, id string) State {
	s.Results = store.Dismiss(s.Results, s.ActiveTerm, id)
	return s
}

// FetchStarted marks req as in flight and stamps it with a generation.
func FetchStarted(s State, req FetchRequest) (State, FetchRequest) {
	s.nextGen++
	req.Generation = s.nextGen

	gens := make(map[string]uint64, len(s.generations)+1)
	for k, v := range s.generations {
		gens[k] = v
	}
	gens[req.Term] = req.Generation
	s.generations = gens

	s.inFlight++
	s.IsLoading = true
	return s, req
}

// IsStale reports whether a newer request than req was issued for the same
// term.
func IsStale(s State, req FetchRequest) bool {
	return req.Generation < s.generations[req.Term]
}

// FetchSucceeded merges page under req.Term and clears Err. Under
// StaleLatest a superseded response is dropped; applied reports whether the
// page was merged.
func FetchSucceeded(s State, req FetchRequest, page core.ResultPage) (next State, applied bool) {
	s = fetchFinished(s)
	if s.policy == StaleLatest && IsStale(s, req) {
		return s, false
	}
	s.Results = store.Merge(s.Results, req.Term, page)
	s.Err = nil
	return s, true
}

// FetchFailed records err. Results are left untouched. Under StaleLatest a
// failure of a superseded request is ignored.
func FetchFailed(s State, req FetchRequest, err error) (next State, applied bool) {
	s = fetchFinished(s)
	if s.policy == StaleLatest && IsStale(s, req) {
		return s, false
	}
	s.Err = err
	return s, true
}

func fetchFinished(s State) State {
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.IsLoading = s.inFlight > 0
	return s
}
