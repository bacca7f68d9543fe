// Package source provides the sample sources the service can pull from:
// a synthetic headset, an EDF recording, and a NATS subscription.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
)

// Sentinel kinds for source errors.
var (
	// ErrExhausted is returned by Pull once a finite source has no more data.
	ErrExhausted = errors.New("source exhausted")
	ErrOpen      = errors.New("source open failed")
	ErrDecode    = errors.New("source decode failed")
)

// Source yields sample blocks. An empty block means no new data yet.
type Source interface {
	Pull(ctx context.Context) (model.SampleBlock, error)
	Close() error
	Name() string
}

// pacer releases sample index n no earlier than start + n/sampleRate.
type pacer struct {
	start      time.Time
	sampleRate float64
	now        func() time.Time
}

func newPacer(sampleRate float64) *pacer {
	return &pacer{sampleRate: sampleRate, now: time.Now}
}

// wait blocks until sample index n is due or ctx is done.
func (p *pacer) wait(ctx context.Context, n int) error {
	if p.start.IsZero() {
		p.start = p.now()
	}
	due := p.start.Add(time.Duration(float64(n) / p.sampleRate * float64(time.Second)))
	d := due.Sub(p.now())
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
