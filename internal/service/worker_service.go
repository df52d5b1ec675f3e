package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookline/internal/adapter"
	"bookline/internal/domain"
	"bookline/internal/observability"
	"bookline/internal/queue"
	"bookline/internal/ratelimit"
	"bookline/internal/repository"
)

const (
	minWorkerConcurrency = 1
	baseRetryDelay       = 30 * time.Second
	maxRetryDelay        = 30 * time.Minute
	maxRetryJitterMillis = 1000
	defaultSendTimeout   = 10 * time.Second
)

// WorkerService consumes task nudges and performs delivery attempts. A nudge
// is only a hint: the worker claims the task row first, so duplicate and
// stale nudges are acked without a second delivery.
type WorkerService struct {
	tasks       repository.TaskRepository
	attempts    repository.AttemptRepository
	consumer    queue.Consumer
	adapters    adapter.Registry
	rateLimiter ratelimit.RateLimiter
	alerter     observability.Alerter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	sendTimeout time.Duration
	now         func() time.Time
	randIntn    func(n int) int
}

func NewWorkerService(
	tasks repository.TaskRepository,
	attempts repository.AttemptRepository,
	consumer queue.Consumer,
	adapters adapter.Registry,
	rateLimiter ratelimit.RateLimiter,
	alerter observability.Alerter,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		tasks:       tasks,
		attempts:    attempts,
		consumer:    consumer,
		adapters:    adapters,
		rateLimiter: rateLimiter,
		alerter:     alerter,
		logger:      logger,
		concurrency: concurrency,
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
		randIntn:    rand.Intn,
	}, nil
}

// Start consumes channel queues and processes task messages until context
// cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := s.consumer.Consume(groupCtx, queueName, s.processMessage)
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

func (s *WorkerService) processMessage(ctx context.Context, msg queue.TaskMessage) error {
	task, err := s.tasks.Claim(ctx, msg.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			observability.WithContextLogger(s.logger, ctx).Warn("task not found during claim, skipping",
				zap.String("taskId", msg.TaskID),
			)
			return nil
		}
		return fmt.Errorf("failed to claim task: %w", err)
	}

	// Nil means another worker holds it or it is already terminal; ack and skip.
	if task == nil {
		return nil
	}

	channelName := strings.ToLower(task.Channel.String())
	if s.metrics != nil {
		s.metrics.IncWorkerInFlight(channelName)
		defer s.metrics.DecWorkerInFlight(channelName)
	}

	if err := s.rateLimiter.Wait(ctx, channelName); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	channelAdapter, err := s.adapters.For(task.Channel)
	if err != nil {
		// No adapter for a persisted channel is a wiring defect; retrying
		// the same task cannot fix it.
		return s.abandon(ctx, task, err.Error(), "no_adapter")
	}

	attemptNumber := task.AttemptCount + 1
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	sendStart := s.now()
	receipt, sendErr := channelAdapter.Send(sendCtx, adapter.Delivery{
		Recipient:  task.Recipient,
		TemplateID: task.TemplateID,
		Variables:  decodeVariables(task.Variables),
	})
	cancel()
	if s.metrics != nil {
		s.metrics.ObserveTaskSendDuration(channelName, s.now().Sub(sendStart))
	}

	if err := s.recordAttempt(ctx, task.ID, attemptNumber, receipt, sendErr); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	if sendErr == nil {
		var providerMsgID *string
		if receipt != nil && strings.TrimSpace(receipt.MessageID) != "" {
			providerMsgID = &receipt.MessageID
		}
		if err := s.tasks.MarkSent(ctx, task.ID, providerMsgID); err != nil {
			return fmt.Errorf("failed to mark task sent: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncTaskSent(channelName)
		}
		return nil
	}

	retryable := adapter.IsRetryable(sendErr)
	maxAttempts := task.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}

	if retryable && attemptNumber < maxAttempts {
		nextAttemptAt := s.now().Add(s.computeRetryDelay(attemptNumber))
		if err := s.tasks.MarkRetry(ctx, task.ID, sendErr.Error(), nextAttemptAt); err != nil {
			return fmt.Errorf("failed to schedule task retry: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncRetryScheduled(channelName)
		}
		return nil
	}

	reason := "permanent_error"
	if retryable {
		reason = "retry_exhausted"
	}
	return s.abandon(ctx, task, sendErr.Error(), reason)
}

func (s *WorkerService) abandon(ctx context.Context, task *domain.NotificationTask, lastError, reason string) error {
	if err := s.tasks.MarkAbandoned(ctx, task.ID, lastError); err != nil {
		return fmt.Errorf("failed to mark task abandoned: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncTaskAbandoned(strings.ToLower(task.Channel.String()), reason)
	}
	if s.alerter != nil {
		s.alerter.TaskAbandoned(task.ID, task.CorrelationKey, lastError, task.AttemptCount+1)
	}
	return nil
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// computeRetryDelay doubles a 30s base per attempt up to a 30min cap, plus a
// small jitter so retry waves do not align.
func (s *WorkerService) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	jitterMillis := 0
	if s.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = s.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func (s *WorkerService) recordAttempt(
	ctx context.Context,
	taskID string,
	attemptNumber int,
	receipt *adapter.Receipt,
	sendErr error,
) error {
	var statusCode *int
	var providerMsgID *string
	var responseBody *string
	var attemptErr *string

	if receipt != nil {
		if receipt.StatusCode > 0 {
			value := receipt.StatusCode
			statusCode = &value
		}
		if msgID := strings.TrimSpace(receipt.MessageID); msgID != "" {
			value := receipt.MessageID
			providerMsgID = &value
		}
		if body := strings.TrimSpace(receipt.Body); body != "" {
			value := receipt.Body
			responseBody = &value
		}
	}

	if sendErr != nil {
		value := sendErr.Error()
		attemptErr = &value

		var adapterErr *adapter.AdapterError
		if errors.As(sendErr, &adapterErr) && adapterErr.StatusCode > 0 && statusCode == nil {
			value := adapterErr.StatusCode
			statusCode = &value
		}
	}

	attempt := &domain.DeliveryAttempt{
		ID:            uuid.NewString(),
		TaskID:        taskID,
		AttemptNumber: attemptNumber,
		StatusCode:    statusCode,
		ProviderMsgID: providerMsgID,
		ResponseBody:  responseBody,
		Error:         attemptErr,
		CreatedAt:     s.now().UTC(),
	}

	return s.attempts.Create(ctx, attempt)
}

func decodeVariables(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	vars := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return nil
	}
	return vars
}
