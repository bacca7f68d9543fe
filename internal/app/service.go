// Package service runs the acquisition loop and the processing worker and
// exposes their state to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/mq/queue"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/mq/worker"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/sink"
	"github.com/bloodyt3ars/neural-interfaces/internal/adapters/source"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/detector"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/model"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/pipeline"
	"github.com/bloodyt3ars/neural-interfaces/internal/domain/rhythm"
	"github.com/bloodyt3ars/neural-interfaces/pkg/logger"
	"github.com/bloodyt3ars/neural-interfaces/pkg/metrics"
)

const (
	defaultQueueSize       = 1024
	defaultPullInterval    = 20 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
)

// DetectorStats mirrors detector.Stats for one detector.
type DetectorStats struct {
	Samples    uint64 `json:"samples"`
	Events     uint64 `json:"events"`
	Suppressed uint64 `json:"suppressed"`
}

// Stats is a snapshot of service progress.
type Stats struct {
	Started       bool                     `json:"started"`
	Source        string                   `json:"source"`
	QueueLength   int                      `json:"queue_length"`
	QueueCapacity int                      `json:"queue_capacity"`
	Blocks        uint64                   `json:"blocks"`
	Samples       uint64                   `json:"samples"`
	EmptyPulls    uint64                   `json:"empty_pulls"`
	PullErrors    uint64                   `json:"pull_errors"`
	Malformed     uint64                   `json:"malformed_blocks"`
	Failed        uint64                   `json:"failed_blocks"`
	LastTimestamp float64                  `json:"last_timestamp"`
	Detectors     map[string]DetectorStats `json:"detectors"`
}

// Service pulls blocks from a source, queues them, and runs them through the
// pipeline on a single worker.
type Service struct {
	mu sync.RWMutex

	// Core components
	source    source.Source
	pipeline  *pipeline.Pipeline
	detectors []*detector.Detector
	analyzer  *rhythm.Analyzer
	listener  model.Listener
	queue     *queue.InMemoryQueue
	worker    *worker.InMemoryWorker

	// Configuration
	queueSize       int
	duration        time.Duration
	pullInterval    time.Duration
	shutdownTimeout time.Duration

	// State
	started    bool
	stopPull   context.CancelFunc
	stopWorker context.CancelFunc
	done       chan struct{}
	stats      Stats

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueSize sets the number of blocks buffered between source and worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSource sets where samples come from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithPipeline sets a prebuilt pipeline. It takes precedence over
// WithDetectors, WithAnalyzer and WithListener.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Service) {
		s.pipeline = p
	}
}

// WithDetectors adds detectors to the pipeline built at Start.
func WithDetectors(ds ...*detector.Detector) Option {
	return func(s *Service) {
		s.detectors = append(s.detectors, ds...)
	}
}

// WithAnalyzer sets the rhythm analyzer for the pipeline built at Start.
func WithAnalyzer(a *rhythm.Analyzer) Option {
	return func(s *Service) {
		s.analyzer = a
	}
}

// WithListener sets the listener for the pipeline built at Start.
func WithListener(l model.Listener) Option {
	return func(s *Service) {
		s.listener = l
	}
}

// WithDuration stops acquisition after d of wall-clock time. Zero runs until
// the source is exhausted or the service is stopped.
func WithDuration(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.duration = d
		}
	}
}

// WithPullInterval sets how long to wait after an empty or failed pull.
func WithPullInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pullInterval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for queued blocks.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:       defaultQueueSize,
		pullInterval:    defaultPullInterval,
		shutdownTimeout: defaultShutdownTimeout,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the acquisition loop and the worker. It returns once both
// are running; Done reports when they finish.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopPull != nil {
		return ErrStopped
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil {
		return ErrNoSource
	}
	if s.pipeline == nil {
		if len(s.detectors) == 0 && s.analyzer == nil {
			return ErrNoPipeline
		}
		l := s.listener
		if l == nil {
			l = sink.Metrics{}
		}
		p, err := pipeline.New(l, s.analyzer, s.detectors...)
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
		s.pipeline = p
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithName("pipeline"),
		worker.WithLogger(s.logger.Named("worker")),
	)

	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	pullCtx, stopPull := context.WithCancel(ctx)
	s.stopWorker = stopWorker
	s.stopPull = stopPull

	s.stats = Stats{
		Started:       true,
		Source:        s.source.Name(),
		QueueCapacity: s.queue.Capacity(),
		Detectors:     make(map[string]DetectorStats, len(s.pipeline.Detectors())),
	}
	for _, d := range s.pipeline.Detectors() {
		s.stats.Detectors[d.Kind().String()] = DetectorStats{}
	}

	pullDone := make(chan struct{})
	go func() {
		defer close(pullDone)
		s.pull(pullCtx)
	}()
	go s.worker.Run(workerCtx)
	go func() {
		<-pullDone
		<-s.worker.Done()
		close(s.done)
	}()

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.String("source", s.source.Name()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("detectors", len(s.pipeline.Detectors())),
		logger.Duration("duration", s.duration),
	)
	return nil
}

// Done is closed once acquisition has ended and every queued block has been
// processed.
func (s *Service) Done() <-chan struct{} { return s.done }

// Stop ends acquisition, lets the worker drain the queue for up to the
// shutdown timeout, and closes the source.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	// The worker takes s.mu in Process; never wait on it while holding the lock.
	ctx := context.Background()
	s.logger.Info(ctx, "stopping service...")

	s.stopPull()
	select {
	case <-s.done:
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn(ctx, "queue not drained before shutdown timeout",
			logger.Int("queueLength", s.queue.Len(ctx)),
		)
		shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker did not stop", logger.Error(err))
			s.stopWorker()
		}
		cancel()
		<-s.done
	}
	s.stopWorker()

	if err := s.source.Close(); err != nil {
		s.logger.Warn(ctx, "closing source", logger.Error(err))
	}

	s.mu.Lock()
	s.stats.Started = false
	blocks, samples := s.stats.Blocks, s.stats.Samples
	s.mu.Unlock()
	s.logger.Info(ctx, "service stopped",
		logger.Uint64("blocks", blocks),
		logger.Uint64("samples", samples),
	)
}

// pull feeds the queue until the source is exhausted, the duration elapses,
// or ctx is canceled. The queue is closed on return so the worker drains it.
func (s *Service) pull(ctx context.Context) {
	defer func() { _ = s.queue.Close() }()

	start := time.Now()
	name := s.source.Name()
	for {
		if ctx.Err() != nil {
			return
		}
		if s.duration > 0 && time.Since(start) >= s.duration {
			s.logger.Info(ctx, "acquisition duration reached", logger.Duration("duration", s.duration))
			return
		}

		block, err := s.source.Pull(ctx)
		switch {
		case errors.Is(err, source.ErrExhausted):
			s.logger.Info(ctx, "source exhausted", logger.String("source", name))
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			metrics.RecordSourcePullError(name)
			s.count(func(st *Stats) { st.PullErrors++ })
			s.logger.Warn(ctx, "pull failed", logger.String("source", name), logger.Error(err))
			s.sleep(ctx)
		case block.Empty():
			metrics.RecordEmptyPull()
			s.count(func(st *Stats) { st.EmptyPulls++ })
			s.sleep(ctx)
		default:
			metrics.RecordSourceBlock(name)
			if err := s.queue.EnqueueWait(ctx, block); err != nil {
				if ctx.Err() == nil {
					s.logger.Error(ctx, "enqueue failed", logger.Error(err))
				}
				return
			}
		}
	}
}

func (s *Service) sleep(ctx context.Context) {
	t := time.NewTimer(s.pullInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) count(f func(*Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.stats)
}

// Process runs one block through the pipeline. It is called by the worker.
func (s *Service) Process(_ context.Context, block model.SampleBlock) error { //nolint:gocritic // hugeParam: blocks are passed by value for channel semantics
	start := time.Now()
	err := s.pipeline.Process(block)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	detectors := s.pipeline.Detectors()
	snapshot := make([]detector.Stats, len(detectors))
	for i, d := range detectors {
		snapshot[i] = d.Stats()
		metrics.UpdateDetectionSuppressed(d.Kind().String(), snapshot[i].Suppressed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, model.ErrMalformedSample):
		s.stats.Malformed++
	case err != nil:
		s.stats.Failed++
	default:
		metrics.RecordBlockProcessed(block.Len(), latencyMs)
		s.stats.Blocks++
		s.stats.Samples += uint64(block.Len())
		if !block.Empty() {
			s.stats.LastTimestamp = block.Last()
		}
	}
	for i, d := range detectors {
		s.stats.Detectors[d.Kind().String()] = DetectorStats(snapshot[i])
	}
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.stats
	st.Detectors = make(map[string]DetectorStats, len(s.stats.Detectors))
	for k, v := range s.stats.Detectors {
		st.Detectors[k] = v
	}
	if s.started {
		st.QueueLength = s.queue.Len(context.Background())
	}
	return st
}
