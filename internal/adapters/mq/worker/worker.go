// Package worker drains the block queue into the processing pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/mq/queue"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

// Processor consumes one block. Implementations need not be safe for
// concurrent use: a worker calls Process from a single goroutine.
type Processor interface {
	Process(ctx context.Context, block model.SampleBlock) error
}

// Queue defines how the worker receives blocks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Block
}

// InMemoryWorker processes blocks strictly in queue order. Detection depends
// on sample order, so there is exactly one worker per pipeline.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Run processes blocks until the queue is drained and closed, ctx is
// canceled, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	blocks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case block, ok := <-blocks:
			if !ok {
				w.logger.Debug(ctx, "queue drained")
				return
			}
			w.processBlock(ctx, block)
		}
	}
}

// Shutdown stops the loop after the in-flight block, leaving any queued
// blocks unprocessed.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// processBlock runs one block. Malformed blocks are logged and skipped; the
// stream continues with the next block.
func (w *InMemoryWorker) processBlock(ctx context.Context, block queue.Block) { //nolint:gocritic // hugeParam: blocks are passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	err := w.processor.Process(ctx, block)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrMalformedSample):
		metrics.RecordMalformedBlock()
		metrics.RecordErrorByComponent("worker", "malformed_sample")
		w.logger.Warn(ctx, "skipping malformed block",
			logger.Int("samples", block.Len()),
			logger.Float64("last_timestamp", block.Last()),
			logger.Error(err),
		)
	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Error(ctx, "error processing block",
			logger.Int("samples", block.Len()),
			logger.Error(err),
		)
	}
}
