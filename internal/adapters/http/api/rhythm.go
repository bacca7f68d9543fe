package api

import (
	"net/http"
)

type rhythmResponse struct {
	AlphaPower float64 `json:"alpha_power"`
	BetaPower  float64 `json:"beta_power"`
	Ratio      float64 `json:"ratio"`
	Timestamp  float64 `json:"timestamp"`
}

// RhythmHandler serves the latest alpha/beta reading.
type RhythmHandler struct {
	tracker Tracker
}

func NewRhythmHandler(tracker Tracker) *RhythmHandler {
	return &RhythmHandler{tracker: tracker}
}

// HandleRhythm handles GET /rhythm. It answers 404 until the analyzer has
// produced its first reading.
func (h *RhythmHandler) HandleRhythm(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, "rhythm") {
		return
	}
	reading, ok := h.tracker.Latest()
	if !ok {
		writeError(w, WrapKind("rhythm", ErrNotFound, ErrNoReading))
		return
	}
	writeJSON(w, http.StatusOK, rhythmResponse{
		AlphaPower: reading.AlphaPower,
		BetaPower:  reading.BetaPower,
		Ratio:      reading.Ratio,
		Timestamp:  reading.Timestamp,
	})
}
