package resolver

import (
	"context"
	"sync"
	"time"
)

// Job is one scheduled fetch attempt.
type Job struct {
	RequestID   string
	TraceID     string
	SubmittedAt time.Time
}

// Queue fans jobs out to resolver workers. Retries re-enter through the same
// queue so a single pool bounds all fetch concurrency.
type Queue struct {
	r       *Resolver
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func NewQueue(r *Resolver, opts ...QueueOption) *Queue {
	q := &Queue{
		r:       r,
		workers: 4,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	r.enqueueRetry = func(job Job) {
		_ = q.Enqueue(context.Background(), job)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.r.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.r.timeout)
					q.r.Process(ctx, job)
					cancel()
				}

				q.r.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue schedules a fetch attempt. After shutdown begins, new jobs are
// dropped; the pending entry stays in the tracker and would be retried on
// the next start.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.r.logger.Warn("cannot enqueue: queue is shutting down", "request_id", job.RequestID)
		return nil
	}
	select {
	case q.ch <- job:
	default:
		q.r.logger.Warn("queue full, applying backpressure", "request_id", job.RequestID)
		q.ch <- job
	}
	return nil
}

// Shutdown stops intake and waits for in-flight attempts, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.r.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.r.logger.Info("queue drained, shutdown complete")
	}
}
