package api

import (
	"net/http"

	service "github.com/bloodyt3ars/neural-interfaces/internal/app"
)

type statsResponse struct {
	service.Stats
	Events    map[string]uint64 `json:"events"`
	Readings  uint64            `json:"readings"`
	LastEvent *eventResponse    `json:"last_event,omitempty"`
}

type eventResponse struct {
	Kind      string  `json:"kind"`
	Timestamp float64 `json:"timestamp"`
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	stats   StatsProvider
	tracker Tracker
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats StatsProvider, tracker Tracker) *StatsHandler {
	return &StatsHandler{stats: stats, tracker: tracker}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, "stats") {
		return
	}
	ts := h.tracker.Stats()
	resp := statsResponse{
		Stats:    h.stats.GetStats(),
		Events:   ts.Events,
		Readings: ts.Readings,
	}
	if ts.LastEvent != nil {
		resp.LastEvent = &eventResponse{Kind: ts.LastEvent.Kind.String(), Timestamp: ts.LastEvent.Timestamp}
	}
	writeJSON(w, http.StatusOK, resp)
}
