package model

import "fmt"

// SampleBlock is a batch of multi-channel samples with one timestamp per row.
// Timestamps are in seconds and non-decreasing.
type SampleBlock struct {
	Samples    [][]float64
	Timestamps []float64
}

// Len returns the number of samples in the block.
func (b SampleBlock) Len() int { return len(b.Samples) }

// Empty reports whether the block carries no samples.
func (b SampleBlock) Empty() bool { return len(b.Samples) == 0 && len(b.Timestamps) == 0 }

// Width returns the smallest channel count across all samples, 0 for an empty block.
func (b SampleBlock) Width() int {
	if len(b.Samples) == 0 {
		return 0
	}
	width := len(b.Samples[0])
	for _, s := range b.Samples[1:] {
		if len(s) < width {
			width = len(s)
		}
	}
	return width
}

// Last returns the timestamp of the final sample, or 0 when there is none.
func (b SampleBlock) Last() float64 {
	if len(b.Timestamps) == 0 {
		return 0
	}
	return b.Timestamps[len(b.Timestamps)-1]
}

// Validate checks that every sample carries channel maxChannel and that
// samples and timestamps line up.
func (b SampleBlock) Validate(maxChannel int) error {
	if len(b.Samples) != len(b.Timestamps) {
		return fmt.Errorf("%d samples but %d timestamps: %w", len(b.Samples), len(b.Timestamps), ErrMalformedSample)
	}
	for i, s := range b.Samples {
		if len(s) <= maxChannel {
			return fmt.Errorf("sample %d has %d channels, need channel %d: %w", i, len(s), maxChannel, ErrMalformedSample)
		}
	}
	return nil
}
