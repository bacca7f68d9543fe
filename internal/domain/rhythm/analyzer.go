// Package rhythm estimates alpha and beta band power over a rolling window
// of one EEG channel.
package rhythm

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/window"
	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	rolling "github.com/bloodyt3ars/neural-interfaces/internal/domain/window"
)

// Analyzer emits one RhythmReading per analyzed block once a second of data
// has been buffered. It is not safe for concurrent use.
type Analyzer struct {
	cfg    Config
	buf    *rolling.Rolling
	fft    *fourier.FFT
	taper  []float64
	padded []float64
	coeffs []complex128
	re, im []float64
	mag    []float64
}

// New builds an analyzer from cfg.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bins := cfg.FFTLength/2 + 1
	return &Analyzer{
		cfg:    cfg,
		buf:    rolling.New(cfg.capacity()),
		fft:    fourier.NewFFT(cfg.FFTLength),
		padded: make([]float64, cfg.FFTLength),
		coeffs: make([]complex128, bins),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
		mag:    make([]float64, bins),
	}, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Buffered is the number of samples currently held.
func (a *Analyzer) Buffered() int { return a.buf.Len() }

// Analyze buffers the analyzed channel of block and, past warm-up, reports
// the band powers of the whole buffer to l.
func (a *Analyzer) Analyze(block model.SampleBlock, l model.ReadingListener) error {
	if err := block.Validate(a.cfg.Channel); err != nil {
		return fmt.Errorf("rhythm: %w", err)
	}
	for _, s := range block.Samples {
		a.buf.Push(s[a.cfg.Channel])
	}
	if a.buf.Len() < a.cfg.warmUp() {
		return nil
	}

	reading := a.measure(a.buf.Snapshot())
	reading.Timestamp = block.Last()
	if l != nil {
		l.OnRhythmReading(reading)
	}
	return nil
}

// measure tapers x, transforms it zero-padded and sums magnitudes per band.
func (a *Analyzer) measure(x []float64) model.RhythmReading {
	if len(a.taper) != len(x) {
		a.taper, _ = window.Hamming(len(x))
	}
	vecmath.MulBlockInPlace(x, a.taper)

	clear(a.padded)
	copy(a.padded, x)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.padded)
	for i, c := range a.coeffs {
		a.re[i], a.im[i] = real(c), imag(c)
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	var alpha, beta float64
	for i, m := range a.mag {
		freq := a.fft.Freq(i) * a.cfg.SampleRate
		if a.cfg.Alpha.Contains(freq) {
			alpha += m
		}
		if a.cfg.Beta.Contains(freq) {
			beta += m
		}
	}
	return model.RhythmReading{
		AlphaPower: alpha,
		BetaPower:  beta,
		Ratio:      alpha / (beta + a.cfg.Epsilon),
	}
}
