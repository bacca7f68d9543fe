// Package model contains domain models passed between layers.
package model

// EventKind names the behavior a DetectionEvent reports.
type EventKind string

const (
	Blink  EventKind = "blink"
	Clench EventKind = "clench"
)

func (k EventKind) String() string { return string(k) }

// DetectionEvent is emitted once per debounced threshold crossing.
type DetectionEvent struct {
	Timestamp float64   // seconds, taken from the triggering sample
	Kind      EventKind // blink or clench
}

// RhythmBand is an inclusive frequency range in Hz.
type RhythmBand struct {
	Name string
	Low  float64
	High float64
}

// Contains reports whether freq lies in [Low, High].
func (b RhythmBand) Contains(freq float64) bool {
	return freq >= b.Low && freq <= b.High
}

// Default EEG bands.
var (
	AlphaBand = RhythmBand{Name: "alpha", Low: 8, High: 13}
	BetaBand  = RhythmBand{Name: "beta", Low: 14, High: 30}
)

// RhythmReading summarizes band power over the analyzer's rolling window.
type RhythmReading struct {
	AlphaPower float64
	BetaPower  float64
	Ratio      float64 // AlphaPower / (BetaPower + epsilon)
	Timestamp  float64 // timestamp of the last sample in the analyzed block
}
