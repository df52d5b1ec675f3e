package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookline/internal/queue"
	"bookline/internal/repository"
)

const (
	defaultRetryScanInterval = 15 * time.Second
	defaultRetryScanLimit    = 100
)

// RetryScanner periodically re-nudges tasks whose retry delay has elapsed,
// plus pending tasks whose original nudge was lost. It is the at-least-once
// backstop behind the broker: publishing the same task twice is harmless
// because workers claim the row before sending.
type RetryScanner struct {
	tasks     repository.TaskRepository
	publisher queue.Publisher
	logger    *zap.Logger
	interval  time.Duration
	limit     int
	now       func() time.Time
}

func NewRetryScanner(
	tasks repository.TaskRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*RetryScanner, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultRetryScanInterval
	}
	if limit <= 0 {
		limit = defaultRetryScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetryScanner{
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		limit:     limit,
		now:       time.Now,
	}, nil
}

func (s *RetryScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so already-due retries do not wait for the first ticker edge.
	if err := s.scanDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("retry scanner initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("retry scanner scan failed", zap.Error(err))
			}
		}
	}
}

func (s *RetryScanner) scanDue(ctx context.Context) error {
	dueTasks, err := s.tasks.ListDue(ctx, s.now().UTC(), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch due tasks: %w", err)
	}

	for i := range dueTasks {
		task := dueTasks[i]
		msg := queue.TaskMessage{
			TaskID:         task.ID,
			CorrelationKey: task.CorrelationKey,
			Channel:        task.Channel,
		}

		queueName := queue.QueueName(task.Channel)
		if err := s.publisher.Publish(ctx, queueName, msg); err != nil {
			s.logger.Error("failed to re-enqueue due task",
				zap.String("taskId", task.ID),
				zap.String("queue", queueName),
				zap.Error(err),
			)
			continue
		}
	}

	return nil
}
