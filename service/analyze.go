package service

import (
	"context"
	"fmt"

	"github.com/viant/edicheck/analysis"
	"github.com/viant/edicheck/queue"
)

// Analyze runs the analysis of a document synchronously.
func (s *Service) Analyze(ctx context.Context, documentID int64) (*analysis.Outcome, error) {
	return s.orchestrator.Analyze(ctx, documentID)
}

// Enqueue schedules the analysis of a document on the task queue.
func (s *Service) Enqueue(ctx context.Context, documentID int64) (*queue.Message, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("task queue not configured")
	}
	msg, err := s.queue.Enqueue(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analysis enqueued", "documentId", documentID, "messageId", msg.ID)
	return msg, nil
}

// RunWorker consumes analysis tasks until ctx is cancelled.
func (s *Service) RunWorker(ctx context.Context, opts ...queue.WorkerOption) error {
	if s.queue == nil {
		return fmt.Errorf("task queue not configured")
	}
	if recoverer, ok := s.queue.(interface {
		Recover(ctx context.Context) (int, error)
	}); ok {
		n, err := recoverer.Recover(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Warn("requeued abandoned tasks", "count", n)
		}
	}
	handler := func(ctx context.Context, documentID int64) error {
		_, err := s.Analyze(ctx, documentID)
		return err
	}
	opts = append([]queue.WorkerOption{queue.WithWorkerLogger(s.logger)}, opts...)
	return queue.NewWorker(s.queue, handler, opts...).Run(ctx)
}
