package queue

import (
	"fmt"
	"strings"

	"bookline/internal/domain"
)

// TaskMessage is the broker payload nudging a worker to attempt one task.
// The task row in the store stays authoritative; a duplicate or stale nudge
// is harmless because the worker claims the row before acting.
type TaskMessage struct {
	TaskID         string         `json:"taskId"`
	CorrelationKey string         `json:"correlationKey,omitempty"`
	Channel        domain.Channel `json:"channel"`
}

func (m TaskMessage) Validate() error {
	if strings.TrimSpace(m.TaskID) == "" {
		return fmt.Errorf("taskId is required")
	}
	if !m.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", m.Channel)
	}
	return nil
}
