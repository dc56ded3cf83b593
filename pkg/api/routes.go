package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", s.HandleSession)
	mux.HandleFunc("POST /api/session/query", s.HandleQuery)
	mux.HandleFunc("POST /api/session/submit", s.HandleSubmit)
	mux.HandleFunc("POST /api/session/more", s.HandleMore)
	mux.HandleFunc("POST /api/session/dismiss", s.HandleDismiss)
	mux.HandleFunc("GET /api/session/ws", s.HandleSessionStream)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
