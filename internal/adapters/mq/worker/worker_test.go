package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/bloodyt3ars/neural-interfaces/internal/adapters/mq/queue"
	worker "github.com/bloodyt3ars/neural-interfaces/internal/adapters/mq/worker"
	model "github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	logging "github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	blocks chan queue.Block
}

func newMockQueue() *mockQueue {
	return &mockQueue{blocks: make(chan queue.Block, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Block { return mq.blocks }

type mockProcessor struct {
	mu   sync.Mutex
	seen []float64
	fail map[float64]error
	hold chan struct{}
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{fail: make(map[float64]error)}
}

func (mp *mockProcessor) Process(_ context.Context, b model.SampleBlock) error {
	if mp.hold != nil {
		<-mp.hold
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.seen = append(mp.seen, b.Last())
	return mp.fail[b.Last()]
}

func (mp *mockProcessor) processed() []float64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]float64(nil), mp.seen...)
}

func block(ts float64) model.SampleBlock {
	return model.SampleBlock{Samples: [][]float64{{ts}}, Timestamps: []float64{ts}}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		p := newMockProcessor()

		convey.Convey("When created with options", func() {
			w := worker.NewInMemoryWorker(q, p, worker.WithName("test-worker"), worker.WithLogger(logging.Get()))
			convey.So(w, convey.ShouldNotBeNil)
		})

		convey.Convey("When blocks are queued and the queue is closed", func() {
			w := worker.NewInMemoryWorker(q, p)
			for i := 0; i < 5; i++ {
				q.blocks <- block(float64(i))
			}
			close(q.blocks)
			w.Run(context.Background())

			convey.Convey("Then every block is processed in order and Run returns", func() {
				convey.So(p.processed(), convey.ShouldResemble, []float64{0, 1, 2, 3, 4})
				select {
				case <-w.Done():
				default:
					t.Fatal("done not closed")
				}
			})
		})

		convey.Convey("When a block fails", func() {
			p.fail[1] = fmt.Errorf("narrow: %w", model.ErrMalformedSample)
			p.fail[2] = errors.New("boom")
			w := worker.NewInMemoryWorker(q, p)
			for i := 0; i < 4; i++ {
				q.blocks <- block(float64(i))
			}
			close(q.blocks)
			w.Run(context.Background())

			convey.Convey("Then the failure is skipped and processing continues", func() {
				convey.So(p.processed(), convey.ShouldResemble, []float64{0, 1, 2, 3})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q, p)
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When shut down while idle", func() {
			w := worker.NewInMemoryWorker(q, p)
			go w.Run(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})

		convey.Convey("When shut down while a block is stuck", func() {
			p.hold = make(chan struct{})
			defer close(p.hold)
			w := worker.NewInMemoryWorker(q, p)
			q.blocks <- block(1)
			go w.Run(context.Background())
			time.Sleep(10 * time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it reports the timeout", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
			})
		})
	})
}
