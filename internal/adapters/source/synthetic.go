package source

import (
	"context"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/internal/eegsim"
)

// Synthetic serves blocks from an eegsim simulator, optionally paced to
// wall-clock time.
type Synthetic struct {
	sim       *eegsim.Sim
	blockSize int
	pace      *pacer
}

// NewSynthetic returns a synthetic source producing blockSize samples per pull.
func NewSynthetic(cfg eegsim.Config, blockSize int, realtime bool) *Synthetic {
	s := &Synthetic{sim: eegsim.New(cfg), blockSize: max(blockSize, 1)}
	if realtime {
		s.pace = newPacer(cfg.SampleRate)
	}
	return s
}

func (s *Synthetic) Name() string { return "synthetic" }

// Pull returns the next block, waiting for it to be due in realtime mode.
func (s *Synthetic) Pull(ctx context.Context) (model.SampleBlock, error) {
	if s.pace != nil {
		if err := s.pace.wait(ctx, s.sim.Position()+s.blockSize); err != nil {
			return model.SampleBlock{}, err
		}
	}
	return s.sim.Block(s.blockSize), nil
}

func (s *Synthetic) Close() error { return nil }
