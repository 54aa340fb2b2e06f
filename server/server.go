// Package server exposes the cleanup pipeline over HTTP for tooling that
// keeps the transcription model elsewhere: POST raw note events, get the
// cleaned notes and chord segments back.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/avolette/chordsift/logging"
	"github.com/avolette/chordsift/notes"
	"github.com/avolette/chordsift/pipeline"
)

// CleanRequest is the POST /v1/clean body. Config is optional; the
// server's default configuration is used when it is absent.
type CleanRequest struct {
	AudioDur   float64          `json:"audio_duration_s,omitempty"`
	NoteEvents []notes.Note     `json:"note_events"`
	Config     *pipeline.Config `json:"config,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes pipeline requests.
type Server struct {
	defaults pipeline.Config
	logger   logging.Logger
}

// New creates a server whose requests default to the given configuration.
func New(defaults pipeline.Config) (*Server, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		defaults: defaults,
		logger:   logging.WithFields(logging.Fields{"component": "server"}),
	}, nil
}

// Handler returns the full HTTP handler with routing and CORS applied.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/v1/clean", s.handleClean).Methods("POST")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	return cors.Default().Handler(router)
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", logging.Fields{"addr": addr})
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	log := s.logger.WithFields(logging.Fields{"request_id": reqID})

	var req CleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return
	}

	config := s.defaults
	if req.Config != nil {
		config = *req.Config
	}

	p, err := pipeline.NewWithConfig(config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := p.Process(r.Context(), req.NoteEvents, req.AudioDur)
	if err != nil {
		var inv *notes.InvalidNoteError
		if errors.As(err, &inv) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	log.Info("clean request served", logging.Fields{
		"raw_notes": len(req.NoteEvents),
		"cleaned":   len(result.CleanedNotes),
		"segments":  len(result.Segments),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error(err, "request failed", logging.Fields{"status": status})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
