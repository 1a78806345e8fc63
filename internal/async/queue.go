package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Submit after Shutdown started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Handler settles one job.
type Handler interface {
	Handle(ctx context.Context, job Job) Outcome
}

// Submitter hands a job to a transport (in-process queue or broker).
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// ProcessorQueue is the in-process transport. One worker by default: heavy
// jobs never overlap on a worker process.
type ProcessorQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	base   context.Context
	cancel context.CancelFunc

	// mu guards sends against close(ch); closing releases blocked senders
	// before Shutdown takes the write lock.
	mu          sync.RWMutex
	closing     chan struct{}
	closingOnce sync.Once
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewProcessorQueue(h Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handler: h,
		logger:  logger,
		workers: 1,
		ch:      make(chan Job, 64),
		closing: make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.base, q.cancel = context.WithCancel(context.Background())
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					outcome := q.handler.Handle(q.base, job)
					q.logger.Info("job settled", "worker_id", workerID, "media_id", job.MediaID, "outcome", outcome)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Submit enqueues job, blocking while the buffer is full. A blocked Submit
// returns ErrQueueClosed as soon as Shutdown starts.
func (q *ProcessorQueue) Submit(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	select {
	case <-q.closing:
		q.logger.Warn("cannot enqueue: queue is shutting down", "media_id", job.MediaID)
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued media for processing", "media_id", job.MediaID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "media_id", job.MediaID)
	select {
	case q.ch <- job:
		return nil
	case <-q.closing:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for the buffer to drain. When ctx
// ends first, running jobs are cancelled.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	first := false
	q.closingOnce.Do(func() {
		first = true
		close(q.closing)
	})
	if !first {
		return
	}
	q.mu.Lock()
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
		q.cancel()
		<-done
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
	q.cancel()
}
