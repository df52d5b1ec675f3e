package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookline/internal/domain"
	"bookline/internal/repository"
)

// TaskService exposes read access to notification tasks for operators.
type TaskService interface {
	GetTask(ctx context.Context, id string) (*domain.NotificationTask, error)
	ListTasks(ctx context.Context, params repository.TaskListParams) ([]domain.NotificationTask, int64, error)
}

// AttemptReader exposes the delivery attempt ledger for one task.
type AttemptReader interface {
	GetByTaskID(ctx context.Context, taskID string) ([]domain.DeliveryAttempt, error)
}

type TaskHandler struct {
	service  TaskService
	attempts AttemptReader
}

func NewTaskHandler(service TaskService, attempts AttemptReader) (*TaskHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("task service is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt reader is required")
	}
	return &TaskHandler{service: service, attempts: attempts}, nil
}

func RegisterTaskRoutes(router fiber.Router, service TaskService, attempts AttemptReader) error {
	h, err := NewTaskHandler(service, attempts)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/tasks", h.ListTasks)
	v1.Get("/tasks/:id", h.GetTask)

	return nil
}

type taskResponse struct {
	ID             string            `json:"id"`
	CorrelationKey string            `json:"correlationKey"`
	EntityType     string            `json:"entityType"`
	EntityID       string            `json:"entityId"`
	EventType      string            `json:"eventType"`
	Channel        string            `json:"channel"`
	RecipientRole  string            `json:"recipientRole"`
	Recipient      string            `json:"recipient"`
	TemplateID     string            `json:"templateId"`
	Status         string            `json:"status"`
	AttemptCount   int               `json:"attemptCount"`
	MaxAttempts    int               `json:"maxAttempts"`
	LastError      *string           `json:"lastError,omitempty"`
	ProviderMsgID  *string           `json:"providerMsgId,omitempty"`
	NextAttemptAt  *time.Time        `json:"nextAttemptAt,omitempty"`
	Attempts       []attemptResponse `json:"attempts,omitempty"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
	UpdatedAt      time.Time         `json:"updatedAt,omitempty"`
}

type attemptResponse struct {
	AttemptNumber int       `json:"attemptNumber"`
	StatusCode    *int      `json:"statusCode,omitempty"`
	ProviderMsgID *string   `json:"providerMsgId,omitempty"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type listTasksResponse struct {
	Data []taskResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	task, err := h.service.GetTask(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	attempts, err := h.attempts.GetByTaskID(c.UserContext(), task.ID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := toTaskResponse(task)
	resp.Attempts = toAttemptResponses(attempts)
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	params, err := parseTaskListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	tasks, total, err := h.service.ListTasks(c.UserContext(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		data = append(data, toTaskResponse(&tasks[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listTasksResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseTaskListParams(c *fiber.Ctx) (repository.TaskListParams, error) {
	params := repository.TaskListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.TaskListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.TaskListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseTaskStatusFromString(rawStatus)
		if err != nil {
			return repository.TaskListParams{}, err
		}
		params.Status = &status
	}

	if rawChannel := strings.TrimSpace(c.Query("channel")); rawChannel != "" {
		channel, err := domain.ParseChannelFromString(rawChannel)
		if err != nil {
			return repository.TaskListParams{}, err
		}
		params.Channel = &channel
	}

	if entityID := strings.TrimSpace(c.Query("entityId")); entityID != "" {
		params.EntityID = &entityID
	}

	return params, nil
}

func toTaskResponse(t *domain.NotificationTask) taskResponse {
	if t == nil {
		return taskResponse{}
	}

	return taskResponse{
		ID:             t.ID,
		CorrelationKey: t.CorrelationKey,
		EntityType:     t.EntityType.String(),
		EntityID:       t.EntityID,
		EventType:      t.EventType.String(),
		Channel:        t.Channel.String(),
		RecipientRole:  t.RecipientRole.String(),
		Recipient:      t.Recipient,
		TemplateID:     t.TemplateID,
		Status:         t.Status.String(),
		AttemptCount:   t.AttemptCount,
		MaxAttempts:    t.MaxAttempts,
		LastError:      t.LastError,
		ProviderMsgID:  t.ProviderMsgID,
		NextAttemptAt:  t.NextAttemptAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toAttemptResponses(attempts []domain.DeliveryAttempt) []attemptResponse {
	responses := make([]attemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, attemptResponse{
			AttemptNumber: attempt.AttemptNumber,
			StatusCode:    attempt.StatusCode,
			ProviderMsgID: attempt.ProviderMsgID,
			Error:         attempt.Error,
			CreatedAt:     attempt.CreatedAt,
		})
	}
	return responses
}
