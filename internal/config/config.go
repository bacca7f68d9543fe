// Package config defines service configuration structures and loading hooks.
//
// Keys are flat so that every field maps to one NEURO_<KEY> variable.
package config

import (
	"fmt"
	"slices"
)

// Source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceEDF       = "edf"
	SourceNATS      = "nats"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Prometheus naming and latency buckets (milliseconds).
	MetricsNamespace string    `koanf:"metrics_namespace"`
	MetricsSubsystem string    `koanf:"metrics_subsystem"`
	LatencyBuckets   []float64 `koanf:"metrics_latency_buckets"`

	// DurationSeconds stops processing after this many seconds; 0 runs until interrupted.
	DurationSeconds float64 `koanf:"duration_seconds"`

	// QueueSize bounds the in-memory block queue.
	QueueSize int `koanf:"queue_size"`

	// SampleRate is the acquisition rate in Hz shared by every component.
	SampleRate float64 `koanf:"sample_rate"`

	// Source selects where samples come from: synthetic, edf or nats.
	Source       string  `koanf:"source"`
	BlockSize    int     `koanf:"block_size"`
	Realtime     bool    `koanf:"realtime"`
	Seed         int64   `koanf:"seed"`
	EDFPath      string  `koanf:"edf_path"`
	ChannelCount int     `koanf:"channel_count"`
	NATSURL      string  `koanf:"nats_url"`
	NATSSubject  string  `koanf:"nats_subject"`
	PollMS       int     `koanf:"poll_ms"`
	BlinkEvery   float64 `koanf:"synthetic_blink_every_seconds"`
	ClenchEvery  float64 `koanf:"synthetic_clench_every_seconds"`

	// Low-pass filter shared by both detectors.
	FilterCutoff float64 `koanf:"filter_cutoff"`
	FilterOrder  int     `koanf:"filter_order"`

	BlinkThresholdMin float64 `koanf:"blink_threshold_min"`
	BlinkThresholdMax float64 `koanf:"blink_threshold_max"`
	BlinkDebounce     float64 `koanf:"blink_debounce_seconds"`
	BlinkChannels     []int   `koanf:"blink_channels"`

	ClenchThresholdMin float64 `koanf:"clench_threshold_min"`
	ClenchThresholdMax float64 `koanf:"clench_threshold_max"`
	ClenchDebounce     float64 `koanf:"clench_debounce_seconds"`
	ClenchChannels     []int   `koanf:"clench_channels"`

	RhythmChannel int     `koanf:"rhythm_channel"`
	FFTLength     int     `koanf:"fft_length"`
	AlphaLow      float64 `koanf:"alpha_low"`
	AlphaHigh     float64 `koanf:"alpha_high"`
	BetaLow       float64 `koanf:"beta_low"`
	BetaHigh      float64 `koanf:"beta_high"`

	// ConsoleOutput prints every event and reading through the logger.
	ConsoleOutput bool `koanf:"console_output"`
	// PublishNATSURL enables the NATS publisher when set.
	PublishNATSURL    string `koanf:"publish_nats_url"`
	PublishNATSPrefix string `koanf:"publish_nats_prefix"`
	// MQTTBroker enables the MQTT publisher when set, e.g. "localhost:1883".
	MQTTBroker      string `koanf:"mqtt_broker"`
	MQTTTopicPrefix string `koanf:"mqtt_topic_prefix"`
	MQTTClientID    string `koanf:"mqtt_client_id"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		MetricsNamespace:   "neuro",
		MetricsSubsystem:   "pipeline",
		QueueSize:          1024,
		SampleRate:         125,
		Source:             SourceSynthetic,
		BlockSize:          25,
		Realtime:           true,
		Seed:               1,
		ChannelCount:       8,
		NATSURL:            "nats://127.0.0.1:4222",
		NATSSubject:        "eeg.samples",
		PollMS:             20,
		BlinkEvery:         2.5,
		ClenchEvery:        7,
		FilterCutoff:       10,
		FilterOrder:        4,
		BlinkThresholdMin:  50,
		BlinkThresholdMax:  150,
		BlinkDebounce:      0.3,
		BlinkChannels:      []int{3, 4},
		ClenchThresholdMin: 100,
		ClenchThresholdMax: 300,
		ClenchDebounce:     0.5,
		ClenchChannels:     []int{3, 4},
		RhythmChannel:      3,
		FFTLength:          4096,
		AlphaLow:           8,
		AlphaHigh:          13,
		BetaLow:            14,
		BetaHigh:           30,
		ConsoleOutput:      true,
		PublishNATSPrefix:  "neuro",
		MQTTTopicPrefix:    "neuro",
		MQTTClientID:       "neural-interfaces",
	}
}

// Validate checks the settings the service needs before any component is
// built. Component constructors validate the signal parameters themselves.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("metrics_namespace must not be empty: %w", ErrInvalidConfig)
	case !increasing(c.LatencyBuckets):
		return fmt.Errorf("metrics_latency_buckets must be increasing: %w", ErrInvalidConfig)
	case c.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be positive: %w", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("queue_size must be positive: %w", ErrInvalidConfig)
	case c.BlockSize <= 0:
		return fmt.Errorf("block_size must be positive: %w", ErrInvalidConfig)
	case c.DurationSeconds < 0:
		return fmt.Errorf("duration_seconds must not be negative: %w", ErrInvalidConfig)
	case !slices.Contains([]string{SourceSynthetic, SourceEDF, SourceNATS}, c.Source):
		return fmt.Errorf("unknown source %q: %w", c.Source, ErrInvalidConfig)
	case c.Source == SourceEDF && c.EDFPath == "":
		return fmt.Errorf("edf_path is required for the edf source: %w", ErrInvalidConfig)
	case len(c.BlinkChannels) == 0 || len(c.ClenchChannels) == 0:
		return fmt.Errorf("blink_channels and clench_channels must not be empty: %w", ErrInvalidConfig)
	case c.ChannelCount <= c.highestChannel():
		return fmt.Errorf("channel_count %d does not cover the configured channels: %w", c.ChannelCount, ErrInvalidConfig)
	}
	return nil
}

// highestChannel is the largest channel index any component reads.
func (c *Config) highestChannel() int {
	highest := c.RhythmChannel
	for _, ch := range c.BlinkChannels {
		highest = max(highest, ch)
	}
	for _, ch := range c.ClenchChannels {
		highest = max(highest, ch)
	}
	return highest
}

func increasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}
