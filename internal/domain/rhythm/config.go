package rhythm

import (
	"fmt"
	"math"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Config parameterizes the analyzer.
type Config struct {
	SampleRate float64 // Hz
	Channel    int     // analyzed channel index
	FFTLength  int     // zero-padded transform length
	Alpha      model.RhythmBand
	Beta       model.RhythmBand
	Epsilon    float64 // added to beta power before dividing
}

// DefaultConfig analyzes channel 3 with a 4096-point transform.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		SampleRate: sampleRate,
		Channel:    3,
		FFTLength:  4096,
		Alpha:      model.AlphaBand,
		Beta:       model.BetaBand,
		Epsilon:    1e-8,
	}
}

// capacity is two seconds of samples.
func (c Config) capacity() int { return 2 * int(math.Round(c.SampleRate)) }

// warmUp is one second of samples.
func (c Config) warmUp() int { return int(math.Round(c.SampleRate)) }

// Validate reports the first invariant the config breaks.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("rhythm: sample rate %v must be positive: %w", c.SampleRate, model.ErrConfiguration)
	case c.Channel < 0:
		return fmt.Errorf("rhythm: channel %d is negative: %w", c.Channel, model.ErrConfiguration)
	case c.FFTLength < c.capacity():
		return fmt.Errorf("rhythm: transform length %d is shorter than the %d sample window: %w", c.FFTLength, c.capacity(), model.ErrConfiguration)
	case c.Alpha.Low > c.Alpha.High:
		return fmt.Errorf("rhythm: alpha band [%v, %v] is inverted: %w", c.Alpha.Low, c.Alpha.High, model.ErrConfiguration)
	case c.Beta.Low > c.Beta.High:
		return fmt.Errorf("rhythm: beta band [%v, %v] is inverted: %w", c.Beta.Low, c.Beta.High, model.ErrConfiguration)
	case c.Epsilon <= 0:
		return fmt.Errorf("rhythm: epsilon %v must be positive: %w", c.Epsilon, model.ErrConfiguration)
	}
	return nil
}
