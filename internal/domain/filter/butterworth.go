// Package filter designs the Butterworth low-pass used by the detectors and
// applies it with zero phase distortion.
package filter

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/buffer"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Spec describes a low-pass design.
type Spec struct {
	Cutoff     float64 // Hz
	SampleRate float64 // Hz
	Order      int
}

// DefaultSpec is the 10 Hz, order 4 low-pass used for artifact detection.
func DefaultSpec(sampleRate float64) Spec {
	return Spec{Cutoff: 10, SampleRate: sampleRate, Order: 4}
}

// Butterworth is an immutable designed filter. Apply never mutates it, so one
// value can be shared between detectors.
type Butterworth struct {
	spec     Spec
	sections []biquad.Coefficients
	padlen   int
	scratch  *buffer.Pool
}

// New designs the cascade for spec.
func New(spec Spec) (*Butterworth, error) {
	switch {
	case spec.SampleRate <= 0:
		return nil, fmt.Errorf("sample rate %v must be positive: %w", spec.SampleRate, model.ErrConfiguration)
	case spec.Cutoff <= 0 || spec.Cutoff >= spec.SampleRate/2:
		return nil, fmt.Errorf("cutoff %v must lie in (0, %v): %w", spec.Cutoff, spec.SampleRate/2, model.ErrConfiguration)
	case spec.Order < 1:
		return nil, fmt.Errorf("order %d must be at least 1: %w", spec.Order, model.ErrConfiguration)
	}

	sections := pass.ButterworthLP(spec.Cutoff, spec.Order, spec.SampleRate)
	return &Butterworth{
		spec:     spec,
		sections: sections,
		padlen:   3 * (2*len(sections) + 1),
		scratch:  buffer.NewPool(),
	}, nil
}

// Spec returns the design parameters.
func (f *Butterworth) Spec() Spec { return f.spec }

// PadLen is the number of samples reflected onto each end before filtering.
func (f *Butterworth) PadLen() int { return f.padlen }

// MinLength is the shortest input Apply accepts.
func (f *Butterworth) MinLength() int { return f.padlen + 1 }

// Apply filters x forward and then backward so the result has no phase lag.
// The input is odd-extended at both ends and every pass starts from the
// steady state of its first sample, which keeps the edges free of start-up
// transients. Inputs not longer than PadLen are rejected.
func (f *Butterworth) Apply(x []float64) ([]float64, error) {
	n := len(x)
	if n <= f.padlen {
		return nil, fmt.Errorf("input of %d samples needs more than %d: %w", n, f.padlen, model.ErrNumerical)
	}

	b := f.scratch.Get(n + 2*f.padlen)
	defer f.scratch.Put(b)
	ext := b.Samples()
	oddExtend(ext, x, f.padlen)
	f.run(ext)
	reverse(ext)
	f.run(ext)
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[f.padlen:f.padlen+n])
	return out, nil
}

// run filters buf in place through a fresh copy of the cascade, one section
// at a time.
func (f *Butterworth) run(buf []float64) {
	level := buf[0]
	for _, c := range f.sections {
		s := biquad.NewSection(c)
		level = settle(s, level)
		s.ProcessBlock(buf)
	}
}

// settle loads the state s would hold after an infinite run of x and returns
// the steady output, which is the next section's input level.
//
// DF2T steady state: y = g*x, d1 = B2*x - A2*y, d0 = B1*x - A1*y + d1.
func settle(s *biquad.Section, x float64) float64 {
	y := x * real(s.Response(0, 1))
	d1 := s.B2*x - s.A2*y
	d0 := s.B1*x - s.A1*y + d1
	s.SetState([2]float64{d0, d1})
	return y
}

// oddExtend fills ext, of length len(x)+2*pad, with x reflected about each
// endpoint: 2*x[0]-x[pad..1] in front and 2*x[n-1]-x[n-2..n-1-pad] behind.
func oddExtend(ext, x []float64, pad int) {
	n := len(x)
	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
