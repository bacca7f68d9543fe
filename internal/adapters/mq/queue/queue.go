// Package queue hands sample blocks from the acquisition goroutine to the
// processing worker through a bounded in-memory buffer.
package queue

import (
	"context"
	"sync"

	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Block is the payload type flowing through the queue.
type Block = model.SampleBlock

// Queue provides bounded FIFO hand-off of sample blocks.
type Queue interface {
	// EnqueueWait adds a block, waiting for space until ctx is done.
	EnqueueWait(ctx context.Context, b Block) error

	// Dequeue returns the channel blocks are delivered on, in enqueue order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Block

	// Len returns the current number of queued blocks.
	Len(ctx context.Context) int

	// Close stops accepting blocks. Queued blocks are still delivered.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	blocks   chan Block
	capacity int
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.blocks = make(chan Block, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Capacity returns the maximum number of queued blocks.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// EnqueueWait adds a block, blocking while the queue is full.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, b Block) error { //nolint:gocritic // hugeParam: blocks are passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.rejected("closed")
		return ErrClosed
	}

	select {
	case q.blocks <- b:
		q.accepted()
		return nil
	case <-ctx.Done():
		q.rejected("context_cancelled")
		return ctx.Err()
	case <-q.done:
		q.rejected("closed")
		return ErrClosed
	}
}

// Dequeue returns a channel that will receive blocks as they become available.
// It must be called once; the queue has a single consumer.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Block {
	out := make(chan Block)
	go func() {
		defer close(out)
		for b := range q.blocks {
			select {
			case out <- b:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued blocks.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.blocks)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	// Wake blocked EnqueueWait callers before taking the write lock they hold shared.
	q.signalDone()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.blocks)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) signalDone() {
	q.doneOnce.Do(func() { close(q.done) })
}

func (q *InMemoryQueue) accepted() {
	metrics.RecordQueueEnqueue()
	q.observe()
}

func (q *InMemoryQueue) rejected(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.blocks)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
