package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler processes the document of a task.
type Handler func(ctx context.Context, documentID int64) error

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 5 * time.Minute
	DefaultMaxAttempts = 3
)

type WorkerOption func(*Worker)

func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithTimeout bounds each handler call.
func WithTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Worker pulls tasks from a queue and runs them with bounded concurrency.
type Worker struct {
	queue       Queue
	handler     Handler
	concurrency int
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger
}

func NewWorker(q Queue, handler Handler, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:       q,
		handler:     handler,
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes tasks until ctx is cancelled or the queue is closed, then
// waits for in flight tasks to finish. Handler failures are retried up to
// the attempt limit and never stop the worker, nor do malformed payloads.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	w.logger.Info("worker started", "concurrency", w.concurrency, "timeout", w.timeout.String())
	var runErr error
	for {
		msg, err := w.queue.Dequeue(gctx)
		if errors.Is(err, ErrMalformed) {
			w.logger.Warn("skipping malformed message", "error", err)
			continue
		}
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrClosed) {
				w.logger.Error("dequeue failed", "error", err)
				runErr = err
			}
			break
		}
		g.Go(func() error {
			w.process(gctx, msg)
			return nil
		})
	}
	_ = g.Wait()
	w.logger.Info("worker stopped")
	return runErr
}

func (w *Worker) process(ctx context.Context, msg *Message) {
	logger := w.logger.With("messageId", msg.ID, "documentId", msg.DocumentID, "attempt", msg.Attempt+1)
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.handler(runCtx, msg.DocumentID)
	cancel()

	// acknowledgements must survive shutdown of the consuming context
	ackCtx := context.WithoutCancel(ctx)
	switch {
	case err == nil:
		if err := w.queue.Ack(ackCtx, msg); err != nil {
			logger.Error("ack failed", "error", err)
		}
	case msg.Attempt+1 >= w.maxAttempts:
		logger.Error("task failed, giving up", "error", err)
		if err := w.queue.Ack(ackCtx, msg); err != nil {
			logger.Error("ack failed", "error", err)
		}
	default:
		logger.Warn("task failed, requeueing", "error", err)
		if err := w.queue.Nack(ackCtx, msg); err != nil {
			logger.Error("nack failed", "error", err)
		}
	}
}
