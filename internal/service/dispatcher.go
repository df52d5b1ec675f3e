package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookline/internal/domain"
	"bookline/internal/observability"
	"bookline/internal/queue"
	"bookline/internal/repository"
)

// route is one entry in the notification policy: who gets notified over which
// channel for a given event type.
type route struct {
	role          domain.RecipientRole
	channel       domain.Channel
	requiresPhone bool
}

// notificationPolicy maps each event type to the notifications it fans out
// into. An event type absent from the table produces no tasks.
var notificationPolicy = map[domain.EventType][]route{
	domain.EventBookingCreated: {
		{role: domain.RoleGuest, channel: domain.ChannelEmail},
		{role: domain.RoleGuest, channel: domain.ChannelWhatsApp, requiresPhone: true},
		{role: domain.RoleProvider, channel: domain.ChannelEmail},
		{role: domain.RoleProvider, channel: domain.ChannelWhatsApp, requiresPhone: true},
	},
	domain.EventBookingChanged: {
		{role: domain.RoleGuest, channel: domain.ChannelEmail},
		{role: domain.RoleGuest, channel: domain.ChannelWhatsApp, requiresPhone: true},
		{role: domain.RoleProvider, channel: domain.ChannelEmail},
		{role: domain.RoleProvider, channel: domain.ChannelWhatsApp, requiresPhone: true},
	},
	domain.EventInvitationCreated: {
		{role: domain.RoleProvider, channel: domain.ChannelEmail},
	},
	domain.EventInvitationAccepted: {
		{role: domain.RoleOrganization, channel: domain.ChannelEmail},
	},
	domain.EventInvitationRejected: {
		{role: domain.RoleOrganization, channel: domain.ChannelEmail},
	},
	domain.EventConnectionSuspended: {
		{role: domain.RoleProvider, channel: domain.ChannelEmail},
	},
	domain.EventConnectionReactivated: {
		{role: domain.RoleProvider, channel: domain.ChannelEmail},
	},
}

// Dispatcher turns domain events into notification tasks and nudges the
// worker pool through the broker. Enqueue is idempotent per correlation key,
// so redelivered events collapse onto the task rows they created the first
// time.
type Dispatcher struct {
	tasks     repository.TaskRepository
	parties   repository.PartyRepository
	publisher queue.Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewDispatcher(
	tasks repository.TaskRepository,
	parties repository.PartyRepository,
	publisher queue.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository is required")
	}
	if parties == nil {
		return nil, fmt.Errorf("party repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		tasks:     tasks,
		parties:   parties,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// Enqueue fans one event out into notification tasks per the policy table.
// For each (entity, event, channel, role) combination at most one task row
// exists; a duplicate enqueue is a no-op unless the existing task was
// abandoned, in which case the same row is revived for a fresh attempt cycle.
func (d *Dispatcher) Enqueue(ctx context.Context, event domain.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	routes := notificationPolicy[event.EventType]
	for _, r := range routes {
		recipient, ok := d.resolveRecipient(ctx, event, r)
		if !ok {
			continue
		}
		if err := d.enqueueOne(ctx, event, r, recipient); err != nil {
			return err
		}
	}

	return nil
}

// GetTask returns one task with its attempt ledger rows counted in.
func (d *Dispatcher) GetTask(ctx context.Context, id string) (*domain.NotificationTask, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return d.tasks.GetByID(ctx, id)
}

// ListTasks returns tasks matching the filter, newest first.
func (d *Dispatcher) ListTasks(ctx context.Context, params repository.TaskListParams) ([]domain.NotificationTask, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return d.tasks.List(ctx, params)
}

func (d *Dispatcher) enqueueOne(ctx context.Context, event domain.Event, r route, recipient string) error {
	key := domain.CorrelationKey(event.EntityID, event.EventType, r.channel, r.role)

	task := &domain.NotificationTask{
		ID:             d.newID(),
		CorrelationKey: key,
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		EventType:      event.EventType,
		Channel:        r.channel,
		RecipientRole:  r.role,
		Recipient:      recipient,
		TemplateID:     templateFor(event.EventType, r.role),
		Variables:      encodeVariables(event),
		Status:         domain.TaskPending,
		MaxAttempts:    domain.DefaultMaxAttempts,
	}
	if err := task.Validate(); err != nil {
		return err
	}

	err := d.tasks.Create(ctx, task)
	if errors.Is(err, domain.ErrConflict) {
		existing, getErr := d.tasks.GetByCorrelationKey(ctx, key)
		if getErr != nil {
			return getErr
		}
		if existing.Status != domain.TaskAbandoned {
			// Already enqueued (or delivered); duplicate events are expected
			// and must not duplicate notifications.
			return nil
		}
		if reviveErr := d.tasks.Revive(ctx, existing.ID); reviveErr != nil {
			return reviveErr
		}
		task = existing
	} else if err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.IncTaskEnqueued(event.EventType.String(), r.channel.String())
	}

	d.nudge(ctx, task)
	return nil
}

// nudge publishes the broker message for a task. The task row is already
// durable, so a publish failure only delays delivery until the retry scanner
// picks the row up.
func (d *Dispatcher) nudge(ctx context.Context, task *domain.NotificationTask) {
	msg := queue.TaskMessage{
		TaskID:         task.ID,
		CorrelationKey: task.CorrelationKey,
		Channel:        task.Channel,
	}
	if err := d.publisher.Publish(ctx, queue.QueueName(task.Channel), msg); err != nil {
		d.logger.Warn("failed to publish task nudge",
			zap.String("taskId", task.ID),
			zap.String("channel", task.Channel.String()),
			zap.Error(err),
		)
	}
}

// resolveRecipient returns the address for a route, or false when the route
// cannot produce a task (no phone on file, unknown party). A skipped route is
// not an error: the remaining routes of the event still fan out.
func (d *Dispatcher) resolveRecipient(ctx context.Context, event domain.Event, r route) (string, bool) {
	switch r.role {
	case domain.RoleGuest:
		return d.guestContact(event, r)
	case domain.RoleProvider:
		return d.partyContact(ctx, event, r, event.Context[domain.ContextProviderID])
	case domain.RoleOrganization:
		return d.partyContact(ctx, event, r, event.Context[domain.ContextOrganizationID])
	}
	return "", false
}

func (d *Dispatcher) guestContact(event domain.Event, r route) (string, bool) {
	if r.channel == domain.ChannelWhatsApp {
		phone := strings.TrimSpace(event.Context[domain.ContextGuestPhone])
		return phone, phone != ""
	}
	email := strings.TrimSpace(event.Context[domain.ContextGuestEmail])
	if email == "" {
		d.logger.Warn("booking event carries no guest email",
			zap.String("entityId", event.EntityID),
			zap.String("eventType", event.EventType.String()),
		)
		return "", false
	}
	return email, true
}

func (d *Dispatcher) partyContact(ctx context.Context, event domain.Event, r route, partyID string) (string, bool) {
	if strings.TrimSpace(partyID) == "" {
		d.logger.Warn("event carries no party reference for route",
			zap.String("entityId", event.EntityID),
			zap.String("eventType", event.EventType.String()),
			zap.String("role", r.role.String()),
		)
		return "", false
	}

	party, err := d.parties.GetByID(ctx, partyID)
	if err != nil {
		d.logger.Warn("failed to resolve recipient party",
			zap.String("partyId", partyID),
			zap.String("eventType", event.EventType.String()),
			zap.Error(err),
		)
		return "", false
	}

	if r.channel == domain.ChannelWhatsApp {
		if party.Phone == nil || strings.TrimSpace(*party.Phone) == "" {
			return "", false
		}
		return *party.Phone, true
	}
	return party.Email, true
}

// templateFor derives the provider template identifier for an event and
// audience, e.g. booking-created-guest.
func templateFor(eventType domain.EventType, role domain.RecipientRole) string {
	return fmt.Sprintf("%s-%s",
		strings.ReplaceAll(eventType.String(), ".", "-"),
		strings.ToLower(role.String()),
	)
}

func encodeVariables(event domain.Event) string {
	vars := make(map[string]string, len(event.Context)+2)
	for k, v := range event.Context {
		vars[k] = v
	}
	vars["entityId"] = event.EntityID
	vars["entityType"] = event.EntityType.String()

	encoded, err := json.Marshal(vars)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
