// Package server exposes the export pipeline over HTTP.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kpauljoseph/md2anki/internal/export"
	"github.com/kpauljoseph/md2anki/pkg/logger"
	"github.com/kpauljoseph/md2anki/pkg/version"
)

type Server struct {
	builder *export.Builder
	log     *logger.Logger
}

func New(builder *export.Builder, log *logger.Logger) *Server {
	return &Server{builder: builder, log: log}
}

// Router mounts the API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/export", s.handleExport)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("json encode failed: %v", err)
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
