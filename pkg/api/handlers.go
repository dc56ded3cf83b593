package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/version"
	"github.com/rubiojr/hnsearch/pkg/view"
)

// HandleSession returns the caller's session. With wait=true the response is
// held until no fetch is in flight.
func (s *Server) HandleSession(w http.ResponseWriter, r *http.Request) {
	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	sess := s.sessions.FromRequest(w, r)

	var (
		snap session.Snapshot
		err  error
	)
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		snap, err = sess.WaitIdle(r.Context())
	} else {
		snap, err = sess.Snapshot()
	}
	if err != nil {
		s.writeActionError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, buildResponse(snap, sorter))
}

// HandleQuery updates the search box text without searching.
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Query == nil {
		s.writeError(w, http.StatusBadRequest, "Missing query", "Field 'query' is required")
		return
	}

	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	sess := s.sessions.FromRequest(w, r)
	snap, err := sess.ChangeQuery(*req.Query)
	s.respond(w, snap, sorter, err)
}

// HandleSubmit searches for the given query, or the current search box text
// when the body carries none.
func (s *Server) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	sess := s.sessions.FromRequest(w, r)
	var (
		snap session.Snapshot
		err  error
	)
	if req.Query != nil {
		snap, err = sess.Submit(*req.Query)
	} else {
		snap, err = sess.SubmitQuery()
	}
	s.respond(w, snap, sorter, err)
}

func (s *Server) HandleMore(w http.ResponseWriter, r *http.Request) {
	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	sess := s.sessions.FromRequest(w, r)
	snap, err := sess.LoadMore()
	s.respond(w, snap, sorter, err)
}

func (s *Server) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.ID == "" {
		s.writeError(w, http.StatusBadRequest, "Missing id", "Field 'id' is required")
		return
	}

	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	sess := s.sessions.FromRequest(w, r)
	snap, err := sess.Dismiss(req.ID)
	s.respond(w, snap, sorter, err)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Sessions:  s.sessions.Len(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

// sorter reads the requested sort order, answering 400 when it is invalid.
func (s *Server) sorter(w http.ResponseWriter, r *http.Request) (view.Sorter, bool) {
	sorter, err := parseSorter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid sort", err.Error())
		return view.Sorter{}, false
	}
	return sorter, true
}

func (s *Server) respond(w http.ResponseWriter, snap session.Snapshot, sorter view.Sorter, err error) {
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, buildResponse(snap, sorter))
}

func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyTerm):
		s.writeError(w, http.StatusBadRequest, "Empty query", err.Error())
	case errors.Is(err, session.ErrNoActiveTerm):
		s.writeError(w, http.StatusConflict, "No active search", err.Error())
	case errors.Is(err, session.ErrClosed):
		s.writeError(w, http.StatusServiceUnavailable, "Session closed", err.Error())
	default:
		s.log.Errorf("session action: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseSorter(r *http.Request) (view.Sorter, error) {
	q := r.URL.Query()
	key, err := view.ParseSortKey(q.Get("sort"))
	if err != nil {
		return view.Sorter{}, err
	}
	sorter := view.Sorter{Key: key}
	if raw := q.Get("reverse"); raw != "" {
		sorter.Reverse, err = strconv.ParseBool(raw)
		if err != nil {
			return view.Sorter{}, fmt.Errorf("invalid reverse value %q", raw)
		}
	}
	return sorter, nil
}

// buildResponse shapes a snapshot for clients. A failed fetch hides the
// results entirely.
func buildResponse(snap session.Snapshot, sorter view.Sorter) SessionResponse {
	resp := SessionResponse{
		SessionID:  snap.SessionID,
		Version:    snap.Version,
		ActiveTerm: snap.ActiveTerm,
		Query:      snap.Query,
		Page:       snap.Page,
		HasMore:    snap.HasMore,
		IsLoading:  snap.IsLoading,
		Sort:       sorter.Key,
		Reverse:    sorter.Reverse,
		Terms:      snap.Results.Terms(),
	}
	if snap.Failed() {
		resp.Error = FailureMessage
		return resp
	}
	resp.HasResults = snap.Cached
	resp.Hits = sorter.Apply(snap.Hits)
	for i := range resp.Hits {
		resp.Hits[i].URL = resp.Hits[i].LinkURL()
	}
	resp.Count = len(resp.Hits)
	return resp
}
