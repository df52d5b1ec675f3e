package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a notification task.
type TaskStatus string

const (
	TaskPending         TaskStatus = "PENDING"
	TaskInFlight        TaskStatus = "IN_FLIGHT"
	TaskSent            TaskStatus = "SENT"
	TaskFailedRetryable TaskStatus = "FAILED_RETRYABLE"
	TaskAbandoned       TaskStatus = "ABANDONED"
)

func (s TaskStatus) String() string { return string(s) }

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInFlight, TaskSent, TaskFailedRetryable, TaskAbandoned:
		return true
	}
	return false
}

// IsTerminal reports whether the task will never be attempted again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSent || s == TaskAbandoned
}

func ParseTaskStatusFromString(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid task status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelWhatsApp
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// RecipientRole identifies who a notification addresses.
type RecipientRole string

const (
	RoleGuest        RecipientRole = "GUEST"
	RoleProvider     RecipientRole = "PROVIDER"
	RoleOrganization RecipientRole = "ORGANIZATION"
)

func (r RecipientRole) String() string { return string(r) }

func (r RecipientRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleProvider, RoleOrganization:
		return true
	}
	return false
}

// DefaultMaxAttempts is the retry cap before a task is abandoned.
const DefaultMaxAttempts = 5

// CorrelationKey derives the deterministic idempotency key for one
// (entity, event, channel, role) combination. Enqueueing the same event twice
// computes the same key and collapses onto one task row.
func CorrelationKey(entityID string, eventType EventType, channel Channel, role RecipientRole) string {
	return fmt.Sprintf("%s:%s:%s:%s", entityID, eventType, channel, role)
}

// NotificationTask is one pending or completed delivery obligation. Tasks are
// owned exclusively by the dispatcher; at most one task per correlation key
// ever reaches SENT, and re-delivery reuses the same row.
type NotificationTask struct {
	ID             string        `gorm:"type:uuid;primaryKey"`
	CorrelationKey string        `gorm:"type:varchar(255);not null"`
	EntityType     EntityType    `gorm:"type:varchar(20);not null"`
	EntityID       string        `gorm:"type:uuid;not null"`
	EventType      EventType     `gorm:"type:varchar(40);not null"`
	Channel        Channel       `gorm:"type:varchar(10);not null"`
	RecipientRole  RecipientRole `gorm:"type:varchar(20);not null"`
	Recipient      string        `gorm:"type:varchar(255);not null"`
	TemplateID     string        `gorm:"type:varchar(100);not null"`
	Variables      string        `gorm:"type:text"`
	Status         TaskStatus    `gorm:"type:varchar(20);not null"`
	AttemptCount   int           `gorm:"not null;default:0"`
	MaxAttempts    int           `gorm:"not null;default:5"`
	LastError      *string       `gorm:"type:text"`
	ProviderMsgID  *string       `gorm:"type:varchar(255)"`
	NextAttemptAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *NotificationTask) Validate() error {
	if strings.TrimSpace(t.CorrelationKey) == "" {
		return fmt.Errorf("%w: correlation key is required", ErrValidation)
	}
	if strings.TrimSpace(t.EntityID) == "" {
		return fmt.Errorf("%w: entity id is required", ErrValidation)
	}
	if !t.EventType.IsValid() {
		return fmt.Errorf("%w: invalid event type %q", ErrValidation, t.EventType)
	}
	if !t.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, t.Channel)
	}
	if !t.RecipientRole.IsValid() {
		return fmt.Errorf("%w: invalid recipient role %q", ErrValidation, t.RecipientRole)
	}
	if strings.TrimSpace(t.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if strings.TrimSpace(t.TemplateID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid task status %q", ErrValidation, t.Status)
	}
	return nil
}
