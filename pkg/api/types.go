package api

import (
	"time"

	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/view"
)

// FailureMessage is shown in place of results after a failed fetch.
const FailureMessage = "Something went wrong."

// SessionResponse is the JSON view of a session snapshot.
type SessionResponse struct {
	SessionID  string       `json:"session_id"`
	Version    uint64       `json:"version"`
	ActiveTerm string       `json:"active_term"`
	Query      string       `json:"query"`
	Hits       []core.Hit   `json:"hits,omitempty"`
	Count      int          `json:"count"`
	Page       int          `json:"page"`
	HasMore    bool         `json:"has_more"`
	HasResults bool         `json:"has_results"`
	IsLoading  bool         `json:"is_loading"`
	Error      string       `json:"error,omitempty"`
	Sort       view.SortKey `json:"sort"`
	Reverse    bool         `json:"reverse"`
	Terms      []string     `json:"terms"`
}

type QueryRequest struct {
	Query *string `json:"query"`
}

type DismissRequest struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Sessions  int       `json:"sessions"`
}

// StreamMessage is one frame of the websocket feed.
type StreamMessage struct {
	Type    string           `json:"type"`
	Session *SessionResponse `json:"session"`
}
