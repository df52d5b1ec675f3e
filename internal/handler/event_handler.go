package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookline/internal/domain"
)

// EventSink accepts booking events from the booking CRUD collaborator.
type EventSink interface {
	Enqueue(ctx context.Context, event domain.Event) error
}

type EventHandler struct {
	sink EventSink
}

func NewEventHandler(sink EventSink) (*EventHandler, error) {
	if sink == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	return &EventHandler{sink: sink}, nil
}

func RegisterEventRoutes(router fiber.Router, sink EventSink) error {
	h, err := NewEventHandler(sink)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/events", h.IngestEvent)

	return nil
}

type ingestEventRequest struct {
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	EventType  string            `json:"eventType"`
	OccurredAt *time.Time        `json:"occurredAt,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
}

// IngestEvent accepts one event and fans it out into notification tasks.
// Delivery is at-least-once on the caller's side; replaying the same event is
// safe because enqueueing is idempotent per correlation key.
func (h *EventHandler) IngestEvent(c *fiber.Ctx) error {
	var req ingestEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	eventType, err := domain.ParseEventTypeFromString(req.EventType)
	if err != nil {
		return toHTTPError(err)
	}

	entityType := domain.EntityType(strings.ToUpper(strings.TrimSpace(req.EntityType)))
	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	event := domain.Event{
		EntityType: entityType,
		EntityID:   strings.TrimSpace(req.EntityID),
		EventType:  eventType,
		OccurredAt: occurredAt,
		Context:    req.Context,
	}
	if err := event.Validate(); err != nil {
		return toHTTPError(err)
	}

	if err := h.sink.Enqueue(c.UserContext(), event); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"entityId":  event.EntityID,
		"eventType": event.EventType.String(),
		"status":    "accepted",
	})
}
