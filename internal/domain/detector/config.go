package detector

import (
	"fmt"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/filter"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Reference channels F3 and F4.
var defaultChannels = []int{3, 4}

// Config parameterizes one detector instance.
type Config struct {
	Kind         model.EventKind
	ThresholdMin float64 // exclusive lower amplitude bound, µV
	ThresholdMax float64 // exclusive upper amplitude bound, µV
	Debounce     float64 // seconds that must pass between two events
	SampleRate   float64 // Hz; also the window length in samples
	Channels     []int
	Filter       filter.Spec
}

// BlinkConfig returns the eye-blink defaults.
func BlinkConfig(sampleRate float64) Config {
	return Config{
		Kind:         model.Blink,
		ThresholdMin: 50,
		ThresholdMax: 150,
		Debounce:     0.3,
		SampleRate:   sampleRate,
		Channels:     append([]int(nil), defaultChannels...),
		Filter:       filter.DefaultSpec(sampleRate),
	}
}

// ClenchConfig returns the jaw-clench defaults.
func ClenchConfig(sampleRate float64) Config {
	return Config{
		Kind:         model.Clench,
		ThresholdMin: 100,
		ThresholdMax: 300,
		Debounce:     0.5,
		SampleRate:   sampleRate,
		Channels:     append([]int(nil), defaultChannels...),
		Filter:       filter.DefaultSpec(sampleRate),
	}
}

// Validate reports the first invariant the config breaks.
func (c Config) Validate() error {
	switch {
	case c.Kind == "":
		return fmt.Errorf("detector kind is empty: %w", model.ErrConfiguration)
	case c.ThresholdMin >= c.ThresholdMax:
		return fmt.Errorf("%s: threshold min %v must be below max %v: %w", c.Kind, c.ThresholdMin, c.ThresholdMax, model.ErrConfiguration)
	case c.Debounce < 0:
		return fmt.Errorf("%s: debounce %v must not be negative: %w", c.Kind, c.Debounce, model.ErrConfiguration)
	case c.SampleRate <= 0:
		return fmt.Errorf("%s: sample rate %v must be positive: %w", c.Kind, c.SampleRate, model.ErrConfiguration)
	case len(c.Channels) == 0:
		return fmt.Errorf("%s: no channels configured: %w", c.Kind, model.ErrConfiguration)
	}
	for _, ch := range c.Channels {
		if ch < 0 {
			return fmt.Errorf("%s: channel %d is negative: %w", c.Kind, ch, model.ErrConfiguration)
		}
	}
	return nil
}

// maxChannel is the highest channel index a sample must carry.
func (c Config) maxChannel() int {
	m := 0
	for _, ch := range c.Channels {
		m = max(m, ch)
	}
	return m
}
