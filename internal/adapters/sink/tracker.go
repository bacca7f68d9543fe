package sink

import (
	"sync"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// TrackerStats is a point-in-time copy of what a Tracker has seen.
type TrackerStats struct {
	Events    map[string]uint64     `json:"events"`
	Readings  uint64                `json:"readings"`
	LastEvent *model.DetectionEvent `json:"last_event,omitempty"`
}

// Tracker keeps counts and the most recent reading for read-side queries.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	events    map[model.EventKind]uint64
	lastEvent *model.DetectionEvent
	readings  uint64
	latest    *model.RhythmReading
}

func NewTracker() *Tracker {
	return &Tracker{events: make(map[model.EventKind]uint64)}
}

func (t *Tracker) OnDetectionEvent(ev model.DetectionEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[ev.Kind]++
	t.lastEvent = &ev
}

func (t *Tracker) OnRhythmReading(r model.RhythmReading) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readings++
	t.latest = &r
}

// Latest returns the most recent rhythm reading, if any.
func (t *Tracker) Latest() (model.RhythmReading, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.latest == nil {
		return model.RhythmReading{}, false
	}
	return *t.latest, true
}

// Count returns the number of events of kind seen so far.
func (t *Tracker) Count(kind model.EventKind) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.events[kind]
}

func (t *Tracker) Stats() TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := TrackerStats{Events: make(map[string]uint64, len(t.events)), Readings: t.readings}
	for k, n := range t.events {
		s.Events[k.String()] = n
	}
	if t.lastEvent != nil {
		ev := *t.lastEvent
		s.LastEvent = &ev
	}
	return s
}
