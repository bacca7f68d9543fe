// Package sink holds the listeners that receive detection events and rhythm
// readings: console output, metrics, an in-memory tracker for the HTTP API,
// and NATS/MQTT publishers.
package sink

import (
	"github.com/google/uuid"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// EventMessage is the published form of a detection event.
type EventMessage struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Timestamp float64 `json:"timestamp"`
}

// RhythmMessage is the published form of a rhythm reading.
type RhythmMessage struct {
	ID         string  `json:"id"`
	AlphaPower float64 `json:"alpha_power"`
	BetaPower  float64 `json:"beta_power"`
	Ratio      float64 `json:"ratio"`
	Timestamp  float64 `json:"timestamp"`
}

func newEventMessage(ev model.DetectionEvent) EventMessage {
	return EventMessage{ID: uuid.NewString(), Kind: ev.Kind.String(), Timestamp: ev.Timestamp}
}

func newRhythmMessage(r model.RhythmReading) RhythmMessage {
	return RhythmMessage{
		ID:         uuid.NewString(),
		AlphaPower: r.AlphaPower,
		BetaPower:  r.BetaPower,
		Ratio:      r.Ratio,
		Timestamp:  r.Timestamp,
	}
}

// Multi fans every notification out to its listeners in order.
type Multi []model.Listener

func (m Multi) OnDetectionEvent(ev model.DetectionEvent) {
	for _, l := range m {
		l.OnDetectionEvent(ev)
	}
}

func (m Multi) OnRhythmReading(r model.RhythmReading) {
	for _, l := range m {
		l.OnRhythmReading(r)
	}
}
