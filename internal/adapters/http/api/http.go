// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/sink"
	service "github.com/bloodyt3ars/neural-interfaces/internal/app"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// StatsProvider exposes service progress.
type StatsProvider interface {
	GetStats() service.Stats
}

// Tracker exposes what the listeners have seen.
type Tracker interface {
	Stats() sink.TrackerStats
	Latest() (model.RhythmReading, bool)
}

// Server wires HTTP routes for the monitoring API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	rhythmHandler *RhythmHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(stats StatsProvider, tracker Tracker) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(stats, tracker),
		rhythmHandler: NewRhythmHandler(tracker),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/rhythm", MetricsMiddleware(s.rhythmHandler.HandleRhythm, "rhythm"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing status, so an unencodable value is
// reported as a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "encode_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError maps err's kind to a status code.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, ErrMethodNotAllowed):
		status, code = http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, ErrBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// requireGet rejects anything but GET and HEAD.
func requireGet(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	writeError(w, NewKind(op, ErrMethodNotAllowed))
	return false
}
