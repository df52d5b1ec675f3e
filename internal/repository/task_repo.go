package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bookline/internal/domain"
)

type TaskListParams struct {
	Status   *domain.TaskStatus
	Channel  *domain.Channel
	EntityID *string
	Page     int
	PageSize int
}

type TaskRepository interface {
	Create(ctx context.Context, t *domain.NotificationTask) error
	GetByID(ctx context.Context, id string) (*domain.NotificationTask, error)
	GetByCorrelationKey(ctx context.Context, key string) (*domain.NotificationTask, error)
	List(ctx context.Context, params TaskListParams) ([]domain.NotificationTask, int64, error)
	// Claim transitions PENDING or FAILED_RETRYABLE to IN_FLIGHT. It returns
	// (nil, nil) when the task is terminal, already claimed, or not yet due
	// for its next attempt, so concurrent workers never deliver the same
	// task twice and redelivered messages cannot shortcut the backoff.
	Claim(ctx context.Context, id string) (*domain.NotificationTask, error)
	MarkSent(ctx context.Context, id string, providerMsgID *string) error
	MarkRetry(ctx context.Context, id string, lastError string, nextAttemptAt time.Time) error
	MarkAbandoned(ctx context.Context, id string, lastError string) error
	// Revive resets an abandoned task for re-enqueue, reusing the same row so
	// the correlation key stays unique. Attempt history is preserved in the
	// delivery ledger.
	Revive(ctx context.Context, id string) error
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]domain.NotificationTask, error)
}

type GormTaskRepo struct {
	db *gorm.DB
}

func NewGormTaskRepo(db *gorm.DB) *GormTaskRepo {
	return &GormTaskRepo{db: db}
}

func (r *GormTaskRepo) Create(ctx context.Context, t *domain.NotificationTask) error {
	model := taskModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if t != nil {
		*t = *taskModelToDomain(model)
	}
	return nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, id string) (*domain.NotificationTask, error) {
	var model TaskModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return taskModelToDomain(&model), nil
}

func (r *GormTaskRepo) GetByCorrelationKey(ctx context.Context, key string) (*domain.NotificationTask, error) {
	var model TaskModel
	err := r.db.WithContext(ctx).
		Where("correlation_key = ?", key).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return taskModelToDomain(&model), nil
}

func (r *GormTaskRepo) List(ctx context.Context, params TaskListParams) ([]domain.NotificationTask, int64, error) {
	query := r.db.WithContext(ctx).Model(&TaskModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Channel != nil {
		query = query.Where("channel = ?", *params.Channel)
	}
	if params.EntityID != nil {
		query = query.Where("entity_id = ?", *params.EntityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []TaskModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	tasks := make([]domain.NotificationTask, 0, len(models))
	for i := range models {
		tasks = append(tasks, *taskModelToDomain(&models[i]))
	}

	return tasks, total, nil
}

func (r *GormTaskRepo) Claim(ctx context.Context, id string) (*domain.NotificationTask, error) {
	result := claimScope(r.db.WithContext(ctx), id, time.Now().UTC()).
		Update("status", domain.TaskInFlight)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&TaskModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, domain.ErrNotFound
		}
		// Terminal or claimed by another worker; caller skips.
		return nil, nil
	}

	var model TaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return taskModelToDomain(&model), nil
}

// claimScope matches tasks that are claimable right now: PENDING or
// FAILED_RETRYABLE, and past their scheduled next attempt.
func claimScope(db *gorm.DB, id string, now time.Time) *gorm.DB {
	claimable := []domain.TaskStatus{domain.TaskPending, domain.TaskFailedRetryable}

	return db.Model(&TaskModel{}).
		Where("id = ? AND status IN ?", id, claimable).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now)
}

func (r *GormTaskRepo) MarkSent(ctx context.Context, id string, providerMsgID *string) error {
	updates := map[string]any{
		"status":          domain.TaskSent,
		"attempt_count":   gorm.Expr("attempt_count + 1"),
		"next_attempt_at": nil,
		"last_error":      nil,
	}
	if providerMsgID != nil {
		updates["provider_msg_id"] = *providerMsgID
	}

	result := r.db.WithContext(ctx).
		Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, domain.TaskInFlight).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTaskRepo) MarkRetry(ctx context.Context, id string, lastError string, nextAttemptAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, domain.TaskInFlight).
		Updates(map[string]any{
			"status":          domain.TaskFailedRetryable,
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"last_error":      lastError,
			"next_attempt_at": nextAttemptAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTaskRepo) MarkAbandoned(ctx context.Context, id string, lastError string) error {
	result := r.db.WithContext(ctx).
		Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, domain.TaskInFlight).
		Updates(map[string]any{
			"status":          domain.TaskAbandoned,
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"last_error":      lastError,
			"next_attempt_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTaskRepo) Revive(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&TaskModel{}).
		Where("id = ? AND status = ?", id, domain.TaskAbandoned).
		Updates(map[string]any{
			"status":          domain.TaskPending,
			"attempt_count":   0,
			"last_error":      nil,
			"next_attempt_at": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormTaskRepo) ListDue(ctx context.Context, asOf time.Time, limit int) ([]domain.NotificationTask, error) {
	var models []TaskModel
	err := r.db.WithContext(ctx).
		Where("(status = ? AND next_attempt_at <= ?) OR (status = ? AND created_at <= ?)",
			domain.TaskFailedRetryable, asOf,
			domain.TaskPending, asOf.Add(-time.Minute)).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.NotificationTask, 0, len(models))
	for i := range models {
		tasks = append(tasks, *taskModelToDomain(&models[i]))
	}

	return tasks, nil
}
