// Package worker runs the background replay verifiers. Each worker takes
// jobs off the replay queue, rebuilds the named set from its stored log,
// and confirms the replayed score matches what the live snapshot reported.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/sideout/internal/adapters/mq/queue"
	"github.com/okian/sideout/internal/adapters/repository"
	"github.com/okian/sideout/internal/domain/event"
	"github.com/okian/sideout/internal/domain/snapshot"
	"github.com/okian/sideout/pkg/logger"
	"github.com/okian/sideout/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job is the replay request flowing through the queue.
type Job = queue.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// LogReader is the slice of the store a replay needs.
type LogReader interface {
	Set(ctx context.Context, setID string) (repository.SetRecord, error)
	Events(ctx context.Context, setID string) ([]event.Entry, error)
}

// Worker processes replay jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// ReplayWorker implements Worker.
type ReplayWorker struct {
	queue  Queue
	source LogReader
	name   string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewReplayWorker creates a new worker with configuration options.
func NewReplayWorker(q Queue, source LogReader, opts ...Option) *ReplayWorker {
	w := &ReplayWorker{
		queue:    q,
		source:   source,
		name:     "replay-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("replay-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *ReplayWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.Process(ctx, job); err != nil {
				w.logger.Error(ctx, "replay failed", logger.String("set_id", job.SetID), logger.Error(err))
			}
		}
	}
}

// signalStop closes the shutdown channel once, no matter how many paths
// request it.
func (w *ReplayWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *ReplayWorker) Shutdown(ctx context.Context) error {
	w.signalStop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process rebuilds one set from its log and verifies the score.
func (w *ReplayWorker) Process(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordReplayDuration(time.Since(start).Seconds())
	}()

	rec, err := w.source.Set(ctx, job.SetID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("loading set %s: %w", job.SetID, err)
	}
	entries, err := w.source.Events(ctx, job.SetID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("loading log for set %s: %w", job.SetID, err)
	}

	rebuilt, err := snapshot.Rebuild(rec.Descriptor, entries)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("rebuilding set %s: %w", job.SetID, err)
	}
	metrics.RecordReplay()

	us, them := rebuilt.Score()
	if us != job.WantUs || them != job.WantThem {
		metrics.RecordReplayMismatch()
		w.logger.Error(ctx, "replay score mismatch",
			logger.String("set_id", job.SetID),
			logger.Int("want_us", job.WantUs),
			logger.Int("want_them", job.WantThem),
			logger.Int("got_us", us),
			logger.Int("got_them", them),
		)
		return fmt.Errorf("set %s: replayed %d-%d, expected %d-%d",
			job.SetID, us, them, job.WantUs, job.WantThem)
	}

	w.logger.Debug(ctx, "replay verified",
		logger.String("set_id", job.SetID),
		logger.Int("events", len(entries)),
	)
	return nil
}

// Pool manages multiple replay workers.
type Pool struct {
	workers []*ReplayWorker
	queue   Queue

	shutdown chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to a
// small pool sized for background verification.
func NewPool(workerCount int, q Queue, source LogReader) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
		if n := runtime.NumCPU(); n < workerCount {
			workerCount = n
		}
	}

	pool := &Pool{
		workers:  make([]*ReplayWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("replay-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewReplayWorker(
			q,
			source,
			WithName("replay-worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish. Safe to
// call alongside Worker.Shutdown or a second Stop.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.signalStop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and drains all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Warn(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}
