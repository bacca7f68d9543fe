// Package pipeline feeds sample blocks through the detectors and the rhythm
// analyzer and forwards their outputs to one listener.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/detector"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/rhythm"
)

// Pipeline is the synchronous processing core. Blocks must be fed from a
// single goroutine.
type Pipeline struct {
	detectors []*detector.Detector
	analyzer  *rhythm.Analyzer
	listener  model.Listener
	maxChan   int
}

// New wires the analyzer and detectors to l. Either may be omitted.
func New(l model.Listener, analyzer *rhythm.Analyzer, detectors ...*detector.Detector) (*Pipeline, error) {
	if l == nil {
		return nil, fmt.Errorf("pipeline: listener is nil: %w", model.ErrConfiguration)
	}
	p := &Pipeline{detectors: detectors, analyzer: analyzer, listener: l}
	for i, d := range detectors {
		if d == nil {
			return nil, fmt.Errorf("pipeline: detector %d is nil: %w", i, model.ErrConfiguration)
		}
		for _, ch := range d.Config().Channels {
			p.maxChan = max(p.maxChan, ch)
		}
	}
	if analyzer != nil {
		p.maxChan = max(p.maxChan, analyzer.Config().Channel)
	}
	return p, nil
}

// MaxChannel is the highest channel index an incoming sample must carry.
func (p *Pipeline) MaxChannel() int { return p.maxChan }

// Detectors returns the wired detectors in processing order.
func (p *Pipeline) Detectors() []*detector.Detector { return p.detectors }

// Process runs block through every component. An empty block is a no-op.
// Malformed blocks are rejected before any component sees them, so a caller
// may skip the block and continue.
func (p *Pipeline) Process(block model.SampleBlock) error {
	if block.Empty() {
		return nil
	}
	if err := block.Validate(p.maxChan); err != nil {
		return err
	}

	var errs []error
	for _, d := range p.detectors {
		if err := d.Process(block, p.listener); err != nil {
			errs = append(errs, err)
		}
	}
	if p.analyzer != nil {
		if err := p.analyzer.Analyze(block, p.listener); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
