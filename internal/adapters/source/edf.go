package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenPSG/edf"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// EDF replays an EDF recording. The format stores samples per record, not a
// rate, so the caller supplies the sampling rate and the channel count to read.
type EDF struct {
	file       *os.File
	signals    []*edf.SignalReader
	sampleRate float64
	blockSize  int
	pace       *pacer
	position   int
	bufs       [][]float64
	done       bool
}

// OpenEDF opens path and prepares readers for the first channels signals.
func OpenEDF(path string, channels int, sampleRate float64, blockSize int, realtime bool) (*EDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	src, err := NewEDF(f, channels, sampleRate, blockSize, realtime)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.file = f
	return src, nil
}

// NewEDF reads a recording from r.
func NewEDF(r io.ReadSeeker, channels int, sampleRate float64, blockSize int, realtime bool) (*EDF, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %v Hz", ErrOpen, channels, sampleRate)
	}
	rec, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	s := &EDF{sampleRate: sampleRate, blockSize: max(blockSize, 1)}
	for i := 0; i < channels; i++ {
		sig, err := rec.Signal(i)
		if err != nil {
			return nil, fmt.Errorf("%w: recording has fewer than %d signals: %w", ErrOpen, channels, err)
		}
		s.signals = append(s.signals, sig)
		s.bufs = append(s.bufs, make([]float64, s.blockSize))
	}
	if realtime {
		s.pace = newPacer(sampleRate)
	}
	return s, nil
}

func (s *EDF) Name() string { return "edf" }

// Pull reads up to blockSize samples from every signal. It returns
// ErrExhausted after the last record.
func (s *EDF) Pull(ctx context.Context) (model.SampleBlock, error) {
	if s.done {
		return model.SampleBlock{}, ErrExhausted
	}
	if s.pace != nil {
		if err := s.pace.wait(ctx, s.position+s.blockSize); err != nil {
			return model.SampleBlock{}, err
		}
	}

	n := s.blockSize
	for i, sig := range s.signals {
		got, err := sig.Read(s.bufs[i])
		if errors.Is(err, io.EOF) {
			s.done = true
		} else if err != nil {
			return model.SampleBlock{}, fmt.Errorf("%w: signal %d: %w", ErrDecode, i, err)
		}
		n = min(n, got)
	}
	if n == 0 {
		s.done = true
		return model.SampleBlock{}, ErrExhausted
	}

	block := model.SampleBlock{
		Samples:    make([][]float64, n),
		Timestamps: make([]float64, n),
	}
	for j := 0; j < n; j++ {
		row := make([]float64, len(s.signals))
		for i := range s.signals {
			row[i] = s.bufs[i][j]
		}
		block.Samples[j] = row
		block.Timestamps[j] = float64(s.position+j) / s.sampleRate
	}
	s.position += n
	return block, nil
}

// Close releases the underlying file when the source opened it.
func (s *EDF) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
