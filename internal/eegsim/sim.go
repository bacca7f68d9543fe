// Package eegsim generates a deterministic multi-channel EEG-like signal with
// an alpha rhythm and periodic blink and jaw-clench artifacts.
package eegsim

import (
	"math"
	"math/rand/v2"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Config shapes the generated signal. Amplitudes are in µV.
type Config struct {
	SampleRate       float64
	Channels         int
	RhythmChannel    int
	ArtifactChannels []int
	Seed             int64

	AlphaAmplitude float64 // 10 Hz component on the rhythm channel
	BetaAmplitude  float64 // 20 Hz component on every channel
	NoiseStdDev    float64

	BlinkEvery      float64 // seconds between blinks, 0 disables
	BlinkAmplitude  float64
	ClenchEvery     float64 // seconds between clenches, 0 disables
	ClenchAmplitude float64
	ClenchDuration  float64 // seconds
}

// DefaultConfig is an 8-channel headset at sampleRate with artifacts on F3/F4.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		SampleRate:       sampleRate,
		Channels:         8,
		RhythmChannel:    3,
		ArtifactChannels: []int{3, 4},
		Seed:             1,
		AlphaAmplitude:   12,
		BetaAmplitude:    3,
		NoiseStdDev:      2,
		BlinkEvery:       2.5,
		BlinkAmplitude:   100,
		ClenchEvery:      7,
		ClenchAmplitude:  200,
		ClenchDuration:   0.4,
	}
}

// Sim produces samples one at a time. It is not safe for concurrent use.
type Sim struct {
	cfg      Config
	rng      *rand.Rand
	n        int
	artifact map[int]bool
}

// New returns a simulator positioned at t = 0.
func New(cfg Config) *Sim {
	s := &Sim{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15)),
		artifact: make(map[int]bool, len(cfg.ArtifactChannels)),
	}
	for _, ch := range cfg.ArtifactChannels {
		s.artifact[ch] = true
	}
	return s
}

// Config returns the simulator settings.
func (s *Sim) Config() Config { return s.cfg }

// Position is the index of the next sample.
func (s *Sim) Position() int { return s.n }

// Next returns the next sample and its timestamp in seconds.
func (s *Sim) Next() ([]float64, float64) {
	t := float64(s.n) / s.cfg.SampleRate
	s.n++

	art := s.blink(t) + s.clench(t)
	out := make([]float64, s.cfg.Channels)
	for ch := range out {
		v := s.cfg.BetaAmplitude*math.Sin(2*math.Pi*20*t+float64(ch)) + s.cfg.NoiseStdDev*s.rng.NormFloat64()
		if ch == s.cfg.RhythmChannel {
			v += s.cfg.AlphaAmplitude * math.Sin(2*math.Pi*10*t)
		}
		if s.artifact[ch] {
			v += art
		}
		out[ch] = v
	}
	return out, t
}

// Block returns the next n samples.
func (s *Sim) Block(n int) model.SampleBlock {
	b := model.SampleBlock{
		Samples:    make([][]float64, n),
		Timestamps: make([]float64, n),
	}
	for i := range n {
		b.Samples[i], b.Timestamps[i] = s.Next()
	}
	return b
}

// blink is a Gaussian bump centered half a period into every cycle.
func (s *Sim) blink(t float64) float64 {
	if s.cfg.BlinkEvery <= 0 {
		return 0
	}
	phase := math.Mod(t, s.cfg.BlinkEvery) - s.cfg.BlinkEvery/2
	const width = 0.06
	return s.cfg.BlinkAmplitude * math.Exp(-0.5*(phase/width)*(phase/width))
}

// clench is a raised-cosine plateau with EMG-like jitter, starting 0.3 s
// before the end of every cycle.
func (s *Sim) clench(t float64) float64 {
	if s.cfg.ClenchEvery <= 0 || s.cfg.ClenchDuration <= 0 {
		return 0
	}
	start := s.cfg.ClenchEvery - s.cfg.ClenchDuration - 0.3
	phase := math.Mod(t, s.cfg.ClenchEvery) - start
	if phase < 0 || phase > s.cfg.ClenchDuration {
		return 0
	}
	env := 0.5 - 0.5*math.Cos(2*math.Pi*phase/s.cfg.ClenchDuration)
	return s.cfg.ClenchAmplitude*env + 0.1*s.cfg.ClenchAmplitude*env*math.Sin(2*math.Pi*45*t)
}
