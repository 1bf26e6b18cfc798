package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
	"github.com/joseph-ayodele/trade-ledger/internal/ledger"
)

// Recorder is the part of *ledger.Service the workers call.
type Recorder interface {
	RecordMessage(ctx context.Context, req ledger.RecordRequest) (*ledger.RecordResult, error)
}

// ResultHandler observes each finished job, e.g. to send the confirmation back.
type ResultHandler func(job Job, res *ledger.RecordResult, err error)

type MessageQueue struct {
	recorder Recorder
	onResult ResultHandler
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// quit wakes senders blocked on a full buffer when Shutdown starts.
	quit     chan struct{}
	quitOnce sync.Once

	// Enqueue holds the read lock while sending; Shutdown takes the write lock to close ch.
	mu     sync.RWMutex
	closed bool
}

type Option func(*MessageQueue)

func WithWorkers(n int) Option {
	return func(q *MessageQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *MessageQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *MessageQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithResultHandler(h ResultHandler) Option {
	return func(q *MessageQueue) {
		q.onResult = h
	}
}

func NewMessageQueue(recorder Recorder, logger *slog.Logger, opts ...Option) *MessageQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &MessageQueue{
		recorder: recorder,
		logger:   logger,
		workers:  4,
		timeout:  time.Minute,
		ch:       make(chan Job, 256),
		quit:     make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *MessageQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *MessageQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	res, err := q.recorder.RecordMessage(ctx, ledger.RecordRequest{
		OwnerID:  job.OwnerID,
		Text:     job.Text,
		Language: job.Language,
	})
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "owner_id", job.OwnerID, "trace_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("queue.job.ok",
			"worker_id", workerID,
			"owner_id", job.OwnerID,
			"trace_id", job.TraceID,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	}
	if q.onResult != nil {
		q.onResult(job, res, err)
	}
}

// Enqueue blocks while the buffer is full until ctx ends or Shutdown starts.
func (q *MessageQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "owner_id", job.OwnerID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.job.enqueued", "owner_id", job.OwnerID, "trace_id", job.TraceID)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "owner_id", job.OwnerID)
	select {
	case q.ch <- job:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx ends.
func (q *MessageQueue) Shutdown(ctx context.Context) {
	q.quitOnce.Do(func() { close(q.quit) })
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
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
