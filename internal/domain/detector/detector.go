// Package detector implements the threshold-and-debounce engine behind the
// blink and clench detectors.
package detector

import (
	"fmt"
	"math"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/filter"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/window"
)

// Smoother is the filter applied to each full window before thresholding.
type Smoother interface {
	Apply(x []float64) ([]float64, error)
	MinLength() int
}

// Stats counts what a detector has seen so far.
type Stats struct {
	Samples    uint64 // samples pushed
	Events     uint64 // events emitted
	Suppressed uint64 // qualifying samples dropped by debounce
}

// Detector watches a set of channels and emits one event per debounced
// excursion of the smoothed amplitude into (ThresholdMin, ThresholdMax).
// It is not safe for concurrent use.
type Detector struct {
	cfg        Config
	smoother   Smoother
	windowSize int
	windows    []*window.Rolling
	maxChannel int

	lastEvent float64
	hasEvent  bool
	stats     Stats
}

// New builds a detector from cfg.
func New(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:        cfg,
		windowSize: int(math.Round(cfg.SampleRate)),
		maxChannel: cfg.maxChannel(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.smoother == nil {
		f, err := filter.New(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("%s filter: %w", cfg.Kind, err)
		}
		d.smoother = f
	}
	if d.windowSize < d.smoother.MinLength() {
		return nil, fmt.Errorf("%s: window of %d samples is shorter than the filter minimum %d: %w",
			cfg.Kind, d.windowSize, d.smoother.MinLength(), model.ErrConfiguration)
	}

	d.windows = make([]*window.Rolling, len(cfg.Channels))
	for i := range d.windows {
		d.windows[i] = window.New(d.windowSize)
	}
	return d, nil
}

// Kind reports which event the detector emits.
func (d *Detector) Kind() model.EventKind { return d.cfg.Kind }

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config { return d.cfg }

// Stats returns the running counters.
func (d *Detector) Stats() Stats { return d.stats }

// Process pushes every sample of block through the detector and calls l for
// each emitted event. The block is validated up front; a malformed block
// leaves the detector untouched.
func (d *Detector) Process(block model.SampleBlock, l model.EventListener) error {
	if err := block.Validate(d.maxChannel); err != nil {
		return fmt.Errorf("%s: %w", d.cfg.Kind, err)
	}

	for i, sample := range block.Samples {
		for w, ch := range d.cfg.Channels {
			d.windows[w].Push(sample[ch])
		}
		d.stats.Samples++

		hit, err := d.inBand()
		if err != nil {
			return fmt.Errorf("%s: %w", d.cfg.Kind, err)
		}
		if !hit {
			continue
		}

		t := block.Timestamps[i]
		if d.hasEvent && t-d.lastEvent <= d.cfg.Debounce {
			d.stats.Suppressed++
			continue
		}
		d.lastEvent, d.hasEvent = t, true
		d.stats.Events++
		if l != nil {
			l.OnDetectionEvent(model.DetectionEvent{Timestamp: t, Kind: d.cfg.Kind})
		}
	}
	return nil
}

// inBand smooths every full window and reports whether the last smoothed
// amplitude of any channel lies strictly inside the thresholds.
func (d *Detector) inBand() (bool, error) {
	for _, w := range d.windows {
		if !w.Full() {
			return false, nil
		}
	}
	for _, w := range d.windows {
		smoothed, err := d.smoother.Apply(w.Snapshot())
		if err != nil {
			return false, err
		}
		amp := math.Abs(smoothed[len(smoothed)-1])
		if amp > d.cfg.ThresholdMin && amp < d.cfg.ThresholdMax {
			return true, nil
		}
	}
	return false, nil
}
